package pagination

import (
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Nanosecond)
	enc := Encode(now, "rpt_abc123")

	cur, err := Decode(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cur == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !cur.CreatedAt.Equal(now) {
		t.Errorf("created_at mismatch: got %v, want %v", cur.CreatedAt, now)
	}
	if cur.ID != "rpt_abc123" {
		t.Errorf("id mismatch: got %s", cur.ID)
	}
}

func TestDecodeEmpty(t *testing.T) {
	cur, err := Decode("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cur != nil {
		t.Error("expected nil cursor for empty input")
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, s := range []string{"not-base64!!!", "aGVsbG8=", "MTIzNA=="} {
		if _, err := Decode(s); err == nil {
			t.Errorf("expected error for cursor %q", s)
		}
	}
}

func TestComputePage(t *testing.T) {
	type row struct {
		id string
		at time.Time
	}
	base := time.Now().UTC()
	rows := []row{
		{"a", base},
		{"b", base.Add(time.Second)},
		{"c", base.Add(2 * time.Second)},
	}
	extract := func(r row) (time.Time, string) { return r.at, r.id }

	// Fetched limit+1: a full next page exists.
	page, next, hasMore := ComputePage(rows, 2, extract)
	if len(page) != 2 || !hasMore || next == "" {
		t.Errorf("expected trimmed page with cursor, got len=%d hasMore=%v", len(page), hasMore)
	}

	// Fewer rows than the limit: no next page.
	page, next, hasMore = ComputePage(rows, 5, extract)
	if len(page) != 3 || hasMore || next != "" {
		t.Errorf("expected full page without cursor, got len=%d hasMore=%v", len(page), hasMore)
	}
}

func TestClampLimit(t *testing.T) {
	if got := ClampLimit(0); got != DefaultLimit {
		t.Errorf("ClampLimit(0) = %d", got)
	}
	if got := ClampLimit(-5); got != DefaultLimit {
		t.Errorf("ClampLimit(-5) = %d", got)
	}
	if got := ClampLimit(1000); got != MaxLimit {
		t.Errorf("ClampLimit(1000) = %d", got)
	}
	if got := ClampLimit(50); got != 50 {
		t.Errorf("ClampLimit(50) = %d", got)
	}
}
