package codec

import "testing"

func TestKeyRoundTrip(t *testing.T) {
	cases := []Key{
		{R: 0, C: 0, D: 0},
		{R: 49, C: 49, D: 127},
		{R: 1<<31 - 1, C: 1<<31 - 1, D: 1<<31 - 1},
	}
	for _, k := range cases {
		got, err := DecodeKey(EncodeKey(k))
		if err != nil {
			t.Fatalf("DecodeKey(EncodeKey(%+v)): %v", k, err)
		}
		if got != k {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, k)
		}
	}
}

func TestDecodeKeyMalformed(t *testing.T) {
	for _, s := range []string{"", "1,2", "1,2,3,4", "a,1,2"} {
		if _, err := DecodeKey(s); err == nil {
			t.Fatalf("DecodeKey(%q): expected error", s)
		}
	}
}

func TestValueRoundTrip(t *testing.T) {
	cases := []Value{
		{Numer: 0, Denom: 0},
		{Numer: 3.14159265, Denom: 2.71828},
		{Numer: -0.5, Denom: 1e10},
	}
	for _, v := range cases {
		got, err := DecodeValue(EncodeValue(v))
		if err != nil {
			t.Fatalf("DecodeValue(EncodeValue(%+v)): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, v)
		}
	}
}

func TestDecodeValueMalformed(t *testing.T) {
	for _, s := range []string{"", "1", "1,2,3", "x,1"} {
		if _, err := DecodeValue(s); err == nil {
			t.Fatalf("DecodeValue(%q): expected error", s)
		}
	}
}
