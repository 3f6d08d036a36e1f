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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		link := ""
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type dumpConfig struct {
	Single bool
	Spew   bool
	Indent string
}

type genesisConfig struct {
	DataDir  string
	Cache    int // MB
	Handles  int
	Prealloc string
}

type rlpdumpConfig struct {
	Verbosity int
	Dump      dumpConfig
	Genesis   genesisConfig
}

func defaultConfig() rlpdumpConfig {
	return rlpdumpConfig{
		Verbosity: 3,
		Dump:      dumpConfig{Indent: "  "},
		Genesis:   genesisConfig{Cache: 16, Handles: 16},
	}
}

func loadConfig(file string, cfg *rlpdumpConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the config file, if any, and applies explicitly set
// command line flags on top of it.
func makeConfig(ctx *cli.Context) (rlpdumpConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Verbosity = ctx.Int(verbosityFlag.Name)
	}
	if ctx.IsSet(singleFlag.Name) {
		cfg.Dump.Single = ctx.Bool(singleFlag.Name)
	}
	if ctx.IsSet(spewFlag.Name) {
		cfg.Dump.Spew = ctx.Bool(spewFlag.Name)
	}
	if ctx.IsSet(indentFlag.Name) {
		cfg.Dump.Indent = ctx.String(indentFlag.Name)
	}
	if ctx.IsSet(dataDirFlag.Name) {
		cfg.Genesis.DataDir = ctx.String(dataDirFlag.Name)
	}
	if ctx.IsSet(cacheFlag.Name) {
		cfg.Genesis.Cache = ctx.Int(cacheFlag.Name)
	}
	if ctx.IsSet(preallocFlag.Name) {
		cfg.Genesis.Prealloc = ctx.String(preallocFlag.Name)
	}
	return cfg, nil
}

// dumpConfigCommand prints the effective configuration as TOML.
func dumpConfigCommand(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}
