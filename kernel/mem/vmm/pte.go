package vmm

import (
	"github.com/tangramos/aarch64/kernel"
	"github.com/tangramos/aarch64/kernel/mem"
	"github.com/tangramos/aarch64/kernel/mem/pmm"
)

// PageTableFlag describes a flag that can be applied to a page table entry.
type PageTableFlag uint64

// Flags defined by the VMSAv8-64 translation table descriptor format. Bits
// 55-58 are reserved for software use; the FlagSoft* constants assign them
// the meanings used by this kernel.
const (
	// FlagValid marks the descriptor as in use.
	FlagValid PageTableFlag = 1 << 0

	// FlagTableOrPage selects the descriptor type: set for a next-level
	// table or a final 4KiB page, clear for a block mapping.
	FlagTableOrPage PageTableFlag = 1 << 1

	// FlagNonSecure selects the non-secure physical address space.
	FlagNonSecure PageTableFlag = 1 << 5

	// FlagUserAccessible permits unprivileged access to the mapping.
	FlagUserAccessible PageTableFlag = 1 << 6

	// FlagReadOnly forbids writes through the mapping.
	FlagReadOnly PageTableFlag = 1 << 7

	// FlagAccessFlag records that the mapping has been used; descriptors
	// without it fault on first access.
	FlagAccessFlag PageTableFlag = 1 << 10

	// FlagNotGlobal restricts the mapping to the current address-space
	// identifier.
	FlagNotGlobal PageTableFlag = 1 << 11

	// FlagDBM is the hardware dirty bit modifier.
	FlagDBM PageTableFlag = 1 << 51

	// FlagContiguous hints that the entry is one of a contiguous
	// aligned set that may share a single TLB entry.
	FlagContiguous PageTableFlag = 1 << 52

	// FlagPrivilegedExecNever forbids privileged instruction fetches.
	FlagPrivilegedExecNever PageTableFlag = 1 << 53

	// FlagExecNever forbids unprivileged instruction fetches.
	FlagExecNever PageTableFlag = 1 << 54

	// FlagSoftWrite marks the mapping writable in software; it shares
	// bit 51 with FlagDBM.
	FlagSoftWrite PageTableFlag = 1 << 51

	// FlagSoftDirty is the software dirty bit.
	FlagSoftDirty PageTableFlag = 1 << 55

	// FlagSoftSwapped is the software swapped bit.
	FlagSoftSwapped PageTableFlag = 1 << 56

	// FlagSoftWritableShared marks a writable shared mapping during
	// copy-on-write bookkeeping.
	FlagSoftWritableShared PageTableFlag = 1 << 57

	// FlagSoftReadOnlyShared marks a read-only shared mapping during
	// copy-on-write bookkeeping.
	FlagSoftReadOnlyShared PageTableFlag = 1 << 58

	// FlagTablePrivilegedExecNever applies FlagPrivilegedExecNever to
	// every mapping reachable through a table descriptor.
	FlagTablePrivilegedExecNever PageTableFlag = 1 << 59

	// FlagTableExecNever applies FlagExecNever to every mapping
	// reachable through a table descriptor.
	FlagTableExecNever PageTableFlag = 1 << 60

	// FlagTableNoUserAccess forbids unprivileged access to every mapping
	// reachable through a table descriptor.
	FlagTableNoUserAccess PageTableFlag = 1 << 61

	// FlagTableReadOnly forbids writes through every mapping reachable
	// through a table descriptor.
	FlagTableReadOnly PageTableFlag = 1 << 62

	// FlagTableNonSecure applies FlagNonSecure to every mapping
	// reachable through a table descriptor.
	FlagTableNonSecure PageTableFlag = 1 << 63
)

// Default flag combinations for the three descriptor roles.
const (
	DefaultTableFlags = FlagValid | FlagTableOrPage
	DefaultBlockFlags = FlagValid | FlagAccessFlag
	DefaultPageFlags  = FlagValid | FlagTableOrPage | FlagAccessFlag
)

// PageTableAttr holds the memory attribute fields of a page table entry: the
// 3-bit index into the MAIR attribute configuration register and the 2-bit
// shareability field.
type PageTableAttr uint64

// Bit ranges of the three disjoint descriptor fields.
const (
	addrMask  uint64 = 0x0000_ffff_ffff_f000
	attrMask  uint64 = 0b11<<8 | 0b111<<2
	flagsMask uint64 = ^(addrMask | attrMask)
)

// PageTableEntry describes a single 64-bit translation table descriptor. An
// entry is exactly one of: unused (all bits zero), a block mapping
// (FlagValid set, FlagTableOrPage clear) or a table/page descriptor (both
// set).
type PageTableEntry uint64

// IsUnused returns true when every bit of the entry is zero.
func (pte PageTableEntry) IsUnused() bool {
	return pte == 0
}

// SetUnused clears the entry.
func (pte *PageTableEntry) SetUnused() {
	*pte = 0
}

// Flags returns the flag bits of the entry.
func (pte PageTableEntry) Flags() PageTableFlag {
	return PageTableFlag(uint64(pte) & flagsMask)
}

// HasFlags returns true if the entry has all the input flags set.
func (pte PageTableEntry) HasFlags(flags PageTableFlag) bool {
	return pte.Flags()&flags == flags
}

// Addr returns the output address of the entry, which may be zero.
func (pte PageTableEntry) Addr() mem.PhysAddr {
	return mem.PhysAddr(uint64(pte) & addrMask)
}

// Attr returns the memory attribute fields of the entry.
func (pte PageTableEntry) Attr() PageTableAttr {
	return PageTableAttr(uint64(pte) & attrMask)
}

// IsBlock returns true when the entry describes a block mapping rather than
// a next-level table or a final page.
func (pte PageTableEntry) IsBlock() bool {
	return uint64(pte)&uint64(FlagTableOrPage) == 0
}

// Frame returns the 4KiB frame referenced by a table or page descriptor.
// ErrFrameNotPresent is returned if the entry is not valid and ErrHugeFrame
// if the entry is a block mapping; for blocks the caller must read Addr
// directly.
func (pte PageTableEntry) Frame() (pmm.Frame, *kernel.Error) {
	switch {
	case !pte.HasFlags(FlagValid):
		return pmm.Frame{}, ErrFrameNotPresent
	case pte.IsBlock():
		return pmm.Frame{}, ErrHugeFrame
	default:
		return pmm.FrameContaining(pte.Addr(), mem.Size4KiB), nil
	}
}

// setAddr replaces the whole entry with the given address, flags and
// attribute fields. The address must be 4KiB-aligned.
func (pte *PageTableEntry) setAddr(addr mem.PhysAddr, flags PageTableFlag, attr PageTableAttr) {
	*pte = PageTableEntry(uint64(addr) | uint64(flags) | uint64(attr))
}

// SetFrame points the entry at the given frame with the given flags and
// memory attribute. The flags must include FlagTableOrPage; passing block
// flags is a contract violation and panics.
func (pte *PageTableEntry) SetFrame(frame pmm.Frame, flags PageTableFlag, attr PageTableAttr) {
	if flags&FlagTableOrPage == 0 {
		panic("vmm: SetFrame requires table or page descriptor flags")
	}
	pte.setAddr(frame.Address(), flags, attr)
}

// SetBlock turns the entry into a block mapping for the memory region of the
// given size containing addr. The flags must not include FlagTableOrPage;
// passing table flags is a contract violation and panics.
func (pte *PageTableEntry) SetBlock(addr mem.PhysAddr, size mem.PageSize, flags PageTableFlag, attr PageTableAttr) {
	if flags&FlagTableOrPage != 0 {
		panic("vmm: SetBlock requires block descriptor flags")
	}
	pte.setAddr(addr.AlignDown(size.Bytes()), flags, attr)
}

// SetFlags replaces the flag bits of the entry, leaving the output address
// and the memory attribute fields untouched.
func (pte *PageTableEntry) SetFlags(flags PageTableFlag) {
	*pte = PageTableEntry(uint64(*pte)&^flagsMask | uint64(flags))
}

// SetAttr replaces the memory attribute fields of the entry, leaving the
// output address and the flag bits untouched.
func (pte *PageTableEntry) SetAttr(attr PageTableAttr) {
	*pte = PageTableEntry(uint64(*pte)&^attrMask | uint64(attr))
}
