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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "rlpdump.toml", `Verbosity = 5

[Dump]
Single = true
Indent = "\t"

[Genesis]
DataDir = "/var/lib/rlpdump"
Cache = 64
`)
	cfg := defaultConfig()
	require.NoError(t, loadConfig(path, &cfg))
	require.Equal(t, 5, cfg.Verbosity)
	require.True(t, cfg.Dump.Single)
	require.False(t, cfg.Dump.Spew)
	require.Equal(t, "\t", cfg.Dump.Indent)
	require.Equal(t, "/var/lib/rlpdump", cfg.Genesis.DataDir)
	require.Equal(t, 64, cfg.Genesis.Cache)
	require.Equal(t, 16, cfg.Genesis.Handles)
}

func TestLoadConfigErrors(t *testing.T) {
	cfg := defaultConfig()
	path := writeFile(t, "unknown.toml", "Bogus = 1\n")
	err := loadConfig(path, &cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "field 'Bogus' is not defined")

	path = writeFile(t, "bad.toml", "Verbosity = \"loud\"\n")
	require.Error(t, loadConfig(path, &cfg))

	require.Error(t, loadConfig(filepath.Join(t.TempDir(), "missing.toml"), &cfg))
}
