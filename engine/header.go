package engine

import "encoding/binary"

// headerSize is the fixed on-disk width of a Header: one uint64 and two
// int64 fields, matching the original C layout (data_size, row_count,
// free_count) with no padding.
const headerSize = 8 + 8 + 8

// Header is the data file's leading fixed-size record. It is the single
// source of truth for the row width and the counts that tell the Index
// Store how many entries to load from the index file.
type Header struct {
	DataSize  uint64
	RowCount  int64
	FreeCount int64
}

// Encode writes the header in the 24-byte little-endian wire format into
// buf, which must be at least headerSize bytes.
func (h Header) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], h.DataSize)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(h.RowCount))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.FreeCount))
}

// DecodeHeader reads a 24-byte little-endian header record.
func DecodeHeader(buf []byte) Header {
	return Header{
		DataSize:  binary.LittleEndian.Uint64(buf[0:8]),
		RowCount:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		FreeCount: int64(binary.LittleEndian.Uint64(buf[16:24])),
	}
}

// address returns the byte offset of logical slot k in the data file.
func (h Header) address(slot int64) int64 {
	return int64(headerSize) + slot*int64(h.DataSize)
}

// slot returns the logical slot number for a byte offset produced by
// address, the inverse operation. It is used to index the free-slot
// bitmap, which is keyed by slot number rather than raw address.
func (h Header) slot(address int64) int64 {
	return (address - int64(headerSize)) / int64(h.DataSize)
}
