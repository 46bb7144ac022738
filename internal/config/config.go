// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package config holds the two binaries' runtime configuration: the fixed
// positional SOM training arguments from spec.md §6, plus the transport
// tuning knobs kcptun exposes as CLI flags (smux buffer sizes, keepalive,
// log redirection).
package config

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

const (
	defaultSomX = 50
	defaultSomY = 50
)

// TrainMode selects between batch and online training, matching the
// source's TRAINTYPE enum.
type TrainMode int

const (
	Batch TrainMode = iota
	Online
)

// Training holds the fixed positional SOM training parameters shared by
// every rank, taken from spec.md §6's CLI contract.
type Training struct {
	MasterFile   string
	NEpochs      int
	TrainMode    TrainMode
	NVecsPerFile int
	Ndimen       int
	SomX, SomY   int
}

// ParseArgs parses the positional argument contract from spec.md §6:
//
//	argc 6: master_file NEPOCHS TRAINMODE NVECSPERFILE NDIMEN
//	argc 8: master_file NEPOCHS TRAINMODE NVECSPERFILE NDIMEN SOM_X SOM_Y
//
// args must not include the program name. Any other arity is a usage
// error; callers print their own usage banner and exit 0, per spec.md §7.
func ParseArgs(args []string) (Training, error) {
	if len(args) != 5 && len(args) != 7 {
		return Training{}, errUsage
	}

	t := Training{
		MasterFile: args[0],
		SomX:       defaultSomX,
		SomY:       defaultSomY,
	}

	var err error
	if t.NEpochs, err = parsePositiveInt("NEPOCHS", args[1]); err != nil {
		return Training{}, err
	}
	mode, err := parseInt("TRAINMODE", args[2])
	if err != nil {
		return Training{}, err
	}
	t.TrainMode = TrainMode(mode)
	if t.NVecsPerFile, err = parsePositiveInt("NVECSPERFILE", args[3]); err != nil {
		return Training{}, err
	}
	if t.Ndimen, err = parsePositiveInt("NDIMEN", args[4]); err != nil {
		return Training{}, err
	}

	if len(args) == 7 {
		if t.SomX, err = parsePositiveInt("SOM_X", args[5]); err != nil {
			return Training{}, err
		}
		if t.SomY, err = parsePositiveInt("SOM_Y", args[6]); err != nil {
			return Training{}, err
		}
	}

	return t, nil
}

// errUsage is returned for any argc other than the two specified arities;
// callers treat it as "print usage, exit 0" rather than a training error.
var errUsage = errors.New("config: usage error")

// IsUsageError reports whether err is the sentinel returned for a
// malformed argument count.
func IsUsageError(err error) bool {
	return stderrors.Is(err, errUsage)
}

// parseInt parses a plain integer argument, with no sign constraint. Used
// for TRAINMODE, which legitimately takes the value 0 (Batch).
func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(errUsage, "%s: %v", name, err)
	}
	return n, nil
}

// parsePositiveInt parses an integer argument that must be strictly
// positive: NEPOCHS, NVECSPERFILE, NDIMEN, SOM_X and SOM_Y all size a loop
// bound or a matrix dimension, so zero or negative values would silently
// produce a zero-epoch run or a zero-dimension matrix instead of failing.
func parsePositiveInt(name, s string) (int, error) {
	n, err := parseInt(name, s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.Wrapf(errUsage, "%s: must be positive, got %d", name, n)
	}
	return n, nil
}

// Transport holds the smux/log tuning knobs exposed as CLI flags on both
// binaries, mirroring kcptun's Config struct.
type Transport struct {
	Listen     string `json:"listen"`
	MasterAddr string `json:"master_addr"`
	WorldSize  int    `json:"world_size"`
	SmuxVer    int    `json:"smuxver"`
	SmuxBuf    int    `json:"smuxbuf"`
	StreamBuf  int    `json:"streambuf"`
	FrameSize  int    `json:"framesize"`
	KeepAlive  int    `json:"keepalive"`
	Log        string `json:"log"`
	Quiet      bool   `json:"quiet"`
}

// ParseJSONOverride decodes a JSON file into cfg, overriding any fields it
// sets, mirroring kcptun's `-c` flag.
func ParseJSONOverride(cfg *Transport, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	return errors.WithStack(json.NewDecoder(f).Decode(cfg))
}
