// Package codec implements the partial-sum key/value encodings from
// spec.md §6. The wire transport (internal/transport) uses gob for its
// binary efficiency; the textual "r,c,d" / "numer,denom" form specified by
// the source is kept here so the round-trip property in spec.md §8 can be
// tested independently of the transport.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Key is a partial-sum key: the grid row, grid column, and feature
// dimension identifying one scalar weight in the codebook.
type Key struct {
	R, C, D uint64
}

// Value is a partial-sum value: the accumulated numerator and denominator
// for one Key.
type Value struct {
	Numer, Denom float64
}

// EncodeKey renders k as the source's null-terminated "r,c,d" text form.
// The terminating NUL is part of the spec's declared wire length but is
// not meaningful in a Go string; callers that need exact byte-for-byte
// parity with the C original should append a NUL themselves.
func EncodeKey(k Key) string {
	return fmt.Sprintf("%d,%d,%d", k.R, k.C, k.D)
}

// DecodeKey parses the "r,c,d" text form produced by EncodeKey.
func DecodeKey(s string) (Key, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Key{}, errors.Errorf("codec: malformed key %q", s)
	}
	r, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Key{}, errors.Wrapf(err, "codec: parsing row of key %q", s)
	}
	c, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Key{}, errors.Wrapf(err, "codec: parsing col of key %q", s)
	}
	d, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Key{}, errors.Wrapf(err, "codec: parsing dim of key %q", s)
	}
	return Key{R: r, C: c, D: d}, nil
}

// EncodeValue renders v as the source's "numer,denom" text form.
func EncodeValue(v Value) string {
	return fmt.Sprintf("%s,%s", strconv.FormatFloat(v.Numer, 'g', -1, 64), strconv.FormatFloat(v.Denom, 'g', -1, 64))
}

// DecodeValue parses the "numer,denom" text form produced by EncodeValue.
func DecodeValue(s string) (Value, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Value{}, errors.Errorf("codec: malformed value %q", s)
	}
	numer, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Value{}, errors.Wrapf(err, "codec: parsing numer of value %q", s)
	}
	denom, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Value{}, errors.Wrapf(err, "codec: parsing denom of value %q", s)
	}
	return Value{Numer: numer, Denom: denom}, nil
}
