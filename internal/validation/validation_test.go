package validation

import "testing"

func TestIsValidEthAddress(t *testing.T) {
	valid := []string{
		"0x1234567890abcdef1234567890abcdef12345678",
		"0xABCDEF1234567890abcdef1234567890ABCDEF12",
	}
	for _, addr := range valid {
		if !IsValidEthAddress(addr) {
			t.Errorf("expected %s to be valid", addr)
		}
	}

	invalid := []string{
		"",
		"0x123",
		"1234567890abcdef1234567890abcdef12345678",
		"0x1234567890abcdef1234567890abcdef1234567g",
	}
	for _, addr := range invalid {
		if IsValidEthAddress(addr) {
			t.Errorf("expected %s to be invalid", addr)
		}
	}
}

func TestIsValidURL(t *testing.T) {
	if !IsValidURL("https://example.com/evidence/1") {
		t.Error("https URL should be valid")
	}
	if !IsValidURL("http://example.com") {
		t.Error("http URL should be valid")
	}
	if IsValidURL("ftp://example.com") {
		t.Error("ftp URL should be invalid")
	}
	if IsValidURL("not a url") {
		t.Error("plain text should be invalid")
	}
	if IsValidURL("javascript:alert(1)") {
		t.Error("javascript scheme should be invalid")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello  ", 100); got != "hello" {
		t.Errorf("expected trimmed string, got %q", got)
	}
	if got := SanitizeString("abc\x00def", 100); got != "abcdef" {
		t.Errorf("expected null bytes removed, got %q", got)
	}
	if got := SanitizeString("abcdefgh", 3); got != "abc" {
		t.Errorf("expected truncation, got %q", got)
	}
}

func TestSanitizeAddress(t *testing.T) {
	if got := SanitizeAddress("  0xABCDEF1234567890abcdef1234567890ABCDEF12  "); got != "0xabcdef1234567890abcdef1234567890abcdef12" {
		t.Errorf("unexpected sanitized address %q", got)
	}
	if got := SanitizeAddress("abcdef1234567890abcdef1234567890abcdef12"); got != "0xabcdef1234567890abcdef1234567890abcdef12" {
		t.Errorf("expected 0x prefix added, got %q", got)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	errs := Validate(
		Required("details", ""),
		ValidAddress("reporter", "0x123"),
	)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}
	if errs.Error() == "" {
		t.Error("expected non-empty error message")
	}
}

func TestValidEvidence(t *testing.T) {
	if err := ValidEvidence("evidence", []string{"https://a.com", "https://b.com"})(); err != nil {
		t.Errorf("valid evidence rejected: %v", err)
	}
	if err := ValidEvidence("evidence", []string{"nope"})(); err == nil {
		t.Error("malformed evidence URL accepted")
	}

	many := make([]string, MaxEvidenceURLs+1)
	for i := range many {
		many[i] = "https://example.com"
	}
	if err := ValidEvidence("evidence", many)(); err == nil {
		t.Error("oversized evidence list accepted")
	}
}

func TestValidAmount(t *testing.T) {
	for _, v := range []string{"0.01", "100", "1.5"} {
		if err := ValidAmount("balance", v)(); err != nil {
			t.Errorf("valid amount %q rejected: %v", v, err)
		}
	}
	for _, v := range []string{"0", "0.0", "-1", "1.2.3", ".5", "5.", "abc"} {
		if err := ValidAmount("balance", v)(); err == nil {
			t.Errorf("invalid amount %q accepted", v)
		}
	}
}
