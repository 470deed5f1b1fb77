package vmm

import (
	"github.com/tangramos/aarch64/kernel"
	"github.com/tangramos/aarch64/kernel/mem"
)

// ErrPageNotAligned is returned when constructing a page from an address that
// is not aligned to the requested page size.
var ErrPageNotAligned = &kernel.Error{Module: "vmm", Message: "page address is not aligned to the page size"}

// Page describes a virtual memory region whose size and alignment are given
// by its page size tag.
type Page struct {
	addr mem.VirtAddr
	size mem.PageSize
}

// PageAt returns the page of the given size starting at addr. The address
// must be aligned to the page size.
func PageAt(addr mem.VirtAddr, size mem.PageSize) (Page, *kernel.Error) {
	if !addr.IsAligned(size.Bytes()) {
		return Page{}, ErrPageNotAligned
	}
	return Page{addr: addr, size: size}, nil
}

// PageContaining returns the page of the given size that contains addr.
func PageContaining(addr mem.VirtAddr, size mem.PageSize) Page {
	return Page{addr: addr.AlignDown(size.Bytes()), size: size}
}

// Address returns the virtual address of the first byte of the page.
func (p Page) Address() mem.VirtAddr {
	return p.addr
}

// Size returns the page size tag of the page.
func (p Page) Size() mem.PageSize {
	return p.size
}

// tableIndex extracts the 9-bit index that selects the entry for addr in the
// page table at the given level (4 is the root, 1 maps 4KiB pages).
func tableIndex(addr mem.VirtAddr, level uint8) uint64 {
	return uint64(addr>>(mem.PageShift+9*(level-1))) & (tableEntryCount - 1)
}

// tableAddr assembles the canonical virtual address selected by the four
// per-level table indices. Addresses with bit 47 set are sign-extended into
// the upper virtual address region, matching the form the translation
// hardware expects.
func tableAddr(i4, i3, i2, i1 uint64) mem.VirtAddr {
	addr := i4<<39 | i3<<30 | i2<<21 | i1<<mem.PageShift
	if addr&(1<<47) != 0 {
		addr |= 0xffff_0000_0000_0000
	}
	return mem.VirtAddr(addr)
}
