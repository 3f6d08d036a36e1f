// Copyright 2022 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// rlpdump is a pretty-printer for RLP data.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/PigCharid/rlpnode/core"
	"github.com/PigCharid/rlpnode/core/rawdb"
	"github.com/PigCharid/rlpnode/rlp"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

var (
	hexFlag = &cli.StringFlag{
		Name:  "hex",
		Usage: "dump the given hex data instead of reading a file or stdin",
	}
	singleFlag = &cli.BoolFlag{
		Name:  "single",
		Usage: "require the input to contain exactly one value",
	}
	reverseFlag = &cli.BoolFlag{
		Name:  "reverse",
		Usage: "convert a dump back into hex-encoded RLP",
	}
	spewFlag = &cli.BoolFlag{
		Name:  "spew",
		Usage: "print values as go-spew dumps of the decoded item tree",
	}
	indentFlag = &cli.StringFlag{
		Name:  "indent",
		Usage: "indentation used for nested lists",
		Value: "  ",
	}
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "sets the verbosity level (0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace)",
		Value: 3,
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "commit the genesis into a LevelDB store at this path",
	}
	cacheFlag = &cli.IntFlag{
		Name:  "cache",
		Usage: "LevelDB cache size in megabytes",
		Value: 16,
	}
	preallocFlag = &cli.StringFlag{
		Name:  "prealloc",
		Usage: "file holding hex-encoded RLP [[address, balance], ...] added to the genesis alloc",
	}
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "rlpdump"
	app.Usage = "pretty-print RLP data"
	app.ArgsUsage = "[file]"
	app.Flags = []cli.Flag{
		hexFlag,
		singleFlag,
		reverseFlag,
		spewFlag,
		indentFlag,
		configFileFlag,
		verbosityFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name:      "genesis",
			Usage:     "Prints the RLP encoding and hash of a genesis header",
			ArgsUsage: "<genesis.json>",
			Action:    genesisCmd,
			Flags: []cli.Flag{
				dataDirFlag,
				cacheFlag,
				preallocFlag,
			},
		},
		{
			Name:   "dumpconfig",
			Usage:  "Show configuration values",
			Action: dumpConfigCommand,
		},
	}
	app.Before = func(ctx *cli.Context) error {
		cfg, err := makeConfig(ctx)
		if err != nil {
			return err
		}
		setupLogging(cfg.Verbosity)
		return nil
	}
	app.Action = rlpdump
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		die(err)
	}
}

func setupLogging(verbosity int) {
	usecolor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	output := io.Writer(os.Stderr)
	if usecolor {
		output = colorable.NewColorable(os.Stderr)
	}
	log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(verbosity), log.StreamHandler(output, log.TerminalFormat(usecolor))))
}

func rlpdump(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	input, err := readInput(ctx)
	if err != nil {
		return err
	}
	if ctx.Bool(reverseFlag.Name) {
		enc, err := reverse(bytes.NewReader(input))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(ctx.App.Writer, hexutil.Encode(enc))
		return err
	}
	data, err := parseHex(input)
	if err != nil {
		return fmt.Errorf("invalid hex input: %v", err)
	}
	log.Debug("Dumping RLP input", "size", len(data))
	dp := &dumper{w: ctx.App.Writer, indent: cfg.Dump.Indent, spew: cfg.Dump.Spew}
	return dp.dump(data, cfg.Dump.Single)
}

// readInput returns the raw input text from --hex, a file argument or stdin.
func readInput(ctx *cli.Context) ([]byte, error) {
	switch {
	case ctx.IsSet(hexFlag.Name):
		if ctx.NArg() != 0 {
			return nil, errors.New("--hex can't be combined with a file argument")
		}
		return []byte(ctx.String(hexFlag.Name)), nil
	case ctx.NArg() == 1:
		return os.ReadFile(ctx.Args().First())
	case ctx.NArg() == 0:
		return io.ReadAll(ctx.App.Reader)
	default:
		return nil, errors.New("at most one file argument allowed")
	}
}

func genesisCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need genesis.json file as the only argument")
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	genesis, err := readGenesis(ctx.Args().First())
	if err != nil {
		return err
	}
	if cfg.Genesis.Prealloc != "" {
		if err := addPrealloc(genesis, cfg.Genesis.Prealloc); err != nil {
			return err
		}
	}

	var db ethdb.KeyValueStore
	if cfg.Genesis.DataDir != "" {
		db, err = rawdb.NewLevelDBDatabase(cfg.Genesis.DataDir, cfg.Genesis.Cache, cfg.Genesis.Handles, "rlpdump/", false)
		if err != nil {
			return err
		}
	} else {
		db = rawdb.NewMemoryDatabase()
	}
	defer db.Close()

	_, hash, err := core.SetupGenesisBlock(db, genesis)
	if err != nil {
		return err
	}
	header := rawdb.ReadHeader(db, hash, 0)
	if header == nil {
		return fmt.Errorf("genesis header %x not found after commit", hash)
	}
	enc, err := rlp.EncodeToBytes(header)
	if err != nil {
		return err
	}
	if cfg.Genesis.DataDir != "" {
		log.Info("Successfully wrote genesis state", "datadir", cfg.Genesis.DataDir, "hash", hash)
	}
	fmt.Fprintf(ctx.App.Writer, "hash: %s\nroot: %s\nrlp:  %s\n", hash.Hex(), header.Root.Hex(), hexutil.Encode(enc))
	return nil
}

func readGenesis(file string) (*core.Genesis, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	genesis := new(core.Genesis)
	if err := json.NewDecoder(f).Decode(genesis); err != nil {
		return nil, fmt.Errorf("invalid genesis file: %v", err)
	}
	return genesis, nil
}

// addPrealloc merges the hex-encoded allocation list in file into the
// genesis alloc. Accounts already present are overwritten.
func addPrealloc(genesis *core.Genesis, file string) error {
	text, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	data, err := parseHex(text)
	if err != nil {
		return fmt.Errorf("invalid prealloc hex: %v", err)
	}
	alloc, err := core.DecodePrealloc(data)
	if err != nil {
		return fmt.Errorf("invalid prealloc: %v", err)
	}
	if genesis.Alloc == nil {
		genesis.Alloc = make(core.GenesisAlloc, len(alloc))
	}
	for addr, account := range alloc {
		genesis.Alloc[addr] = account
	}
	return nil
}

func die(args ...interface{}) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}
