package engine

import "github.com/bits-and-blooms/bitset"

// freeBitmap mirrors the freelist BST's address set as a bitmap indexed by
// slot number, backed by a real bitset so membership is a single bit
// test. The freelist BST remains the only structure consulted to choose
// an address for reuse; this type exists purely so tests can assert
// "is slot k free" in O(1) without a tree descent. Info does not read it.
type freeBitmap struct {
	bits *bitset.BitSet
}

func newFreeBitmap() *freeBitmap {
	return &freeBitmap{bits: bitset.New(0)}
}

// markFree records that slot is available for reuse.
func (b *freeBitmap) markFree(slot int64) {
	b.bits.Set(uint(slot))
}

// markUsed records that slot is no longer available for reuse.
func (b *freeBitmap) markUsed(slot int64) {
	b.bits.Clear(uint(slot))
}

// isFree reports whether slot is currently marked free.
func (b *freeBitmap) isFree(slot int64) bool {
	return b.bits.Test(uint(slot))
}

// count returns the number of slots currently marked free.
func (b *freeBitmap) count() int64 {
	return int64(b.bits.Count())
}

// reset clears every bit, used when rebuilding from the freelist BST on
// Open.
func (b *freeBitmap) reset() {
	b.bits.ClearAll()
}
