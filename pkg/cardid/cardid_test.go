//go:build unit

package cardid

import "testing"

func TestValidateAddress(t *testing.T) {
	cases := []struct {
		address string
		valid   bool
	}{
		{"0000:01:00.0", true},
		{"ffff:ff:1f.7", true},
		{"0000:01:00", false},
		{"01:00.0", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidateAddress(c.address); got != c.valid {
			t.Errorf("ValidateAddress(%q) = %v, want %v", c.address, got, c.valid)
		}
	}
}

func TestParseSequenceNumber(t *testing.T) {
	n, ok := ParseSequenceNumber("#2")
	if !ok || n != 2 {
		t.Fatalf("ParseSequenceNumber(#2) = (%d, %v), want (2, true)", n, ok)
	}
	if _, ok := ParseSequenceNumber("2"); ok {
		t.Fatal("expected ParseSequenceNumber to require a # prefix")
	}
	if _, ok := ParseSequenceNumber("#nope"); ok {
		t.Fatal("expected ParseSequenceNumber to reject non-numeric suffix")
	}
}

func TestCardIdString(t *testing.T) {
	if got := FromSerial(42).String(); got != "serial=42" {
		t.Errorf("FromSerial(42).String() = %q", got)
	}
	if got := FromAddress("0000:01:00.0").String(); got != "address=0000:01:00.0" {
		t.Errorf("FromAddress(...).String() = %q", got)
	}
	if got := FromSequenceNumber(3).String(); got != "sequence=3" {
		t.Errorf("FromSequenceNumber(3).String() = %q", got)
	}
}

func TestScannerResolveByAddress(t *testing.T) {
	s := NewScanner("1d9b", nil)
	desc, err := s.Resolve(FromAddress("0000:01:00.0"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if desc.Address != "0000:01:00.0" {
		t.Errorf("Address = %q", desc.Address)
	}
}

func TestScannerResolveRejectsMalformedAddress(t *testing.T) {
	s := NewScanner("1d9b", nil)
	if _, err := s.Resolve(FromAddress("not-an-address")); err == nil {
		t.Fatal("expected error for malformed PCI address")
	}
}

func TestScannerResolveEmptyCardId(t *testing.T) {
	s := NewScanner("1d9b", nil)
	if _, err := s.Resolve(CardId{}); err == nil {
		t.Fatal("expected error for empty CardId")
	}
}
