package mem

import "github.com/tangramos/aarch64/kernel"

// ErrInvalidPhysAddr is returned when a physical address does not fit the
// implemented physical address width.
var ErrInvalidPhysAddr = &kernel.Error{Module: "mem", Message: "physical address exceeds the implemented physical address width"}

// VirtAddr describes a virtual memory address.
type VirtAddr uint64

// AlignDown returns the address rounded down to the nearest multiple of
// align. The alignment must be a power of two.
func (a VirtAddr) AlignDown(align Size) VirtAddr {
	return a &^ VirtAddr(align-1)
}

// AlignUp returns the address rounded up to the nearest multiple of align.
// The alignment must be a power of two.
func (a VirtAddr) AlignUp(align Size) VirtAddr {
	return (a + VirtAddr(align-1)) &^ VirtAddr(align-1)
}

// IsAligned returns true if the address is a multiple of align.
func (a VirtAddr) IsAligned(align Size) bool {
	return a&VirtAddr(align-1) == 0
}

// PhysAddr describes a physical memory address.
type PhysAddr uint64

// NewPhysAddr wraps a raw address value, ensuring that it fits the
// implemented physical address width.
func NewPhysAddr(addr uint64) (PhysAddr, *kernel.Error) {
	if addr >= 1<<PhysAddrBits {
		return 0, ErrInvalidPhysAddr
	}
	return PhysAddr(addr), nil
}

// AlignDown returns the address rounded down to the nearest multiple of
// align. The alignment must be a power of two.
func (a PhysAddr) AlignDown(align Size) PhysAddr {
	return a &^ PhysAddr(align-1)
}

// AlignUp returns the address rounded up to the nearest multiple of align.
// The alignment must be a power of two.
func (a PhysAddr) AlignUp(align Size) PhysAddr {
	return (a + PhysAddr(align-1)) &^ PhysAddr(align-1)
}

// IsAligned returns true if the address is a multiple of align.
func (a PhysAddr) IsAligned(align Size) bool {
	return a&PhysAddr(align-1) == 0
}
