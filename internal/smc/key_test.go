package smc

import "testing"

func TestKeyRoundTrip(t *testing.T) {
	tests := []string{"PSTR", "Tp01", "#KEY", "PP0b"}
	for _, s := range tests {
		k, err := ParseKey(s)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", s, err)
		}
		if k.String() != s {
			t.Errorf("round trip %q: got %q", s, k.String())
		}
	}
}

func TestParseKeyRejectsBadLength(t *testing.T) {
	for _, s := range []string{"", "PST", "PSTRX"} {
		if _, err := ParseKey(s); err == nil {
			t.Errorf("ParseKey(%q): expected error", s)
		}
	}
}

func TestKeyOrdering(t *testing.T) {
	// Byte-wise ordering follows the big-endian packing.
	a := MustKey("PP0b")
	b := MustKey("PP1b")
	if a >= b {
		t.Errorf("expected %s < %s", a, b)
	}
}

func TestKeyHasPrefix(t *testing.T) {
	k := MustKey("Tp01")
	if !k.HasPrefix("Tp") {
		t.Error("Tp01 should match prefix Tp")
	}
	if k.HasPrefix("TP") {
		t.Error("prefix match must be case sensitive")
	}
	if k.HasPrefix("Tp01x") {
		t.Error("prefix longer than key must not match")
	}
}

func TestMemSource(t *testing.T) {
	m := NewMemSource()
	m.SetFloat(MustKey("PSTR"), 12.5)
	m.SetTemp(MustKey("Tp01"), 45.0)

	v, err := m.ReadFloat(MustKey("PSTR"))
	if err != nil || v != 12.5 {
		t.Errorf("ReadFloat: got %v, %v", v, err)
	}

	tC, err := m.ReadTemperature(MustKey("Tp01"))
	if err != nil || tC != 45.0 {
		t.Errorf("ReadTemperature: got %v, %v", tC, err)
	}

	if _, err := m.ReadFloat(MustKey("XXXX")); err != ErrNotFound {
		t.Errorf("missing key: got %v, want ErrNotFound", err)
	}

	keys, err := m.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Errorf("Keys: got %d, want 2", len(keys))
	}

	if FloatOrZero(m, MustKey("XXXX")) != 0 {
		t.Error("FloatOrZero should substitute 0 for missing keys")
	}
}
