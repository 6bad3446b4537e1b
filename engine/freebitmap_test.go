package engine

import "testing"

func TestFreeBitmapMarkAndQuery(t *testing.T) {
	b := newFreeBitmap()

	if b.isFree(5) {
		t.Fatalf("isFree(5) = true on a fresh bitmap")
	}

	b.markFree(5)
	b.markFree(9)
	if !b.isFree(5) || !b.isFree(9) {
		t.Fatalf("markFree did not set the expected bits")
	}
	if b.count() != 2 {
		t.Fatalf("count() = %d, want 2", b.count())
	}

	b.markUsed(5)
	if b.isFree(5) {
		t.Fatalf("isFree(5) = true after markUsed")
	}
	if b.count() != 1 {
		t.Fatalf("count() = %d, want 1", b.count())
	}

	b.reset()
	if b.count() != 0 {
		t.Fatalf("count() = %d after reset, want 0", b.count())
	}
}
