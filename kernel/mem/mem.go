// Package mem provides the address and size types shared by the physical and
// virtual memory management code.
package mem

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

const (
	// PageShift is equal to log2 of the translation granule size. This
	// constant is used when we need to convert a physical address to a
	// frame number (shift right by PageShift) and vice-versa.
	PageShift = 12

	// PointerShift is equal to log2(unsafe.Sizeof(uintptr(0))) and is
	// used to convert between a page-table index and a byte offset.
	PointerShift = 3

	// PhysAddrBits is the implemented physical address width. Physical
	// addresses with bits set above it cannot be encoded into a
	// translation table descriptor.
	PhysAddrBits = 48
)
