// Package vmm builds and mutates the multi-level translation tables that map
// virtual pages to physical frames.
package vmm

import (
	"github.com/tangramos/aarch64/kernel"
	"github.com/tangramos/aarch64/kernel/cpu"
	"github.com/tangramos/aarch64/kernel/mem"
	"github.com/tangramos/aarch64/kernel/mem/pmm"
)

var (
	// ErrPageNotMapped is returned when no mapping of the requested size
	// exists for a virtual address.
	ErrPageNotMapped = &kernel.Error{Module: "vmm", Message: "page is not mapped to a physical frame"}

	// ErrFrameNotPresent is returned when reading the frame of an entry
	// whose valid flag is clear.
	ErrFrameNotPresent = &kernel.Error{Module: "vmm", Message: "entry is not mapped to a frame"}

	// ErrHugeFrame is returned when reading the frame of a block entry;
	// block addresses must be read directly.
	ErrHugeFrame = &kernel.Error{Module: "vmm", Message: "entry maps a block instead of a 4KiB frame"}

	// ErrParentEntryHugePage is returned when an upper level entry is a
	// block mapping that covers the requested page, blocking the walk.
	ErrParentEntryHugePage = &kernel.Error{Module: "vmm", Message: "an upper level entry maps a block covering this page"}

	// ErrInvalidFrameAddress is returned when an entry holds an output
	// address that is not aligned to the declared mapping size.
	ErrInvalidFrameAddress = &kernel.Error{Module: "vmm", Message: "entry output address is not aligned to the mapping size"}

	// ErrFrameAllocationFailed is returned when the injected allocator
	// could not supply a frame for a missing intermediate table.
	ErrFrameAllocationFailed = &kernel.Error{Module: "vmm", Message: "frame allocator returned no frame for a new page table"}

	// ErrPageAlreadyMapped is returned when a mapping request targets a
	// page that is already in use; the existing mapping is left intact.
	ErrPageAlreadyMapped = &kernel.Error{Module: "vmm", Message: "page is already mapped to a physical frame"}

	// ErrInvalidRecursiveIndex is returned when a recursive table index
	// does not fit in 9 bits.
	ErrInvalidRecursiveIndex = &kernel.Error{Module: "vmm", Message: "recursive index is out of range"}
)

// Mapper is the contract shared by translation table implementations. The
// page size travels inside Page and Frame values, so one method set covers
// 4KiB, 2MiB and 1GiB mappings uniformly.
//
// A Mapper value represents exclusive access to one address space's tables:
// callers must serialize concurrent structural edits externally.
type Mapper interface {
	// MapTo creates a new mapping from page to frame. Missing
	// intermediate tables are created using frames from allocator; at
	// most three are required. The caller must guarantee that frame is
	// not concurrently in use elsewhere. The returned flush token must
	// be discharged before the mapping can be assumed visible.
	MapTo(page Page, frame pmm.Frame, flags PageTableFlag, attr MemoryAttribute, allocator pmm.FrameAllocator) (MapperFlush, *kernel.Error)

	// GetEntry returns a copy of the descriptor that terminates the walk
	// for page.
	GetEntry(page Page) (PageTableEntry, *kernel.Error)

	// GetEntryMut returns a mutable reference to the descriptor that
	// terminates the walk for page.
	GetEntryMut(page Page) (*PageTableEntry, *kernel.Error)

	// Unmap removes the mapping for page and returns the frame that was
	// mapped. Intermediate tables are left in place even when the unmap
	// leaves them empty.
	Unmap(page Page) (pmm.Frame, MapperFlush, *kernel.Error)

	// UpdateFlags replaces the flag bits of an existing mapping.
	UpdateFlags(page Page, flags PageTableFlag) (MapperFlush, *kernel.Error)

	// TranslatePage returns the frame that page is mapped to, assuming a
	// mapping of exactly the page's size.
	TranslatePage(page Page) (pmm.Frame, *kernel.Error)

	// IdentityMap maps frame at the virtual page with the numerically
	// identical base address. The caller must guarantee that frame is
	// not concurrently in use elsewhere.
	IdentityMap(frame pmm.Frame, flags PageTableFlag, attr MemoryAttribute, allocator pmm.FrameAllocator) (MapperFlush, *kernel.Error)

	// Translate resolves a virtual address to the frame backing it,
	// whatever the mapping size, together with the offset of addr within
	// that frame.
	Translate(addr mem.VirtAddr) (TranslateResult, *kernel.Error)

	// TranslateAddr resolves a virtual address to the physical address
	// it is mapped to.
	TranslateAddr(addr mem.VirtAddr) (mem.PhysAddr, *kernel.Error)
}

// TranslateResult describes a successful Translate lookup. The size of the
// mapping that matched is carried by the frame's page size tag.
type TranslateResult struct {
	// Frame is the physical frame backing the address.
	Frame pmm.Frame

	// Offset is the distance of the translated address from the start of
	// the frame.
	Offset uint64
}

// MapperFlush records the obligation to invalidate stale translations after
// a structural change to a page's mapping. The token must be discharged
// exactly once, either by Flush or, when the caller knows no stale
// translation can exist, by Ignore. Discharging a token twice is a contract
// violation and panics.
type MapperFlush struct {
	page Page
	hw   cpu.Hardware
	done bool
}

func newFlush(page Page, hw cpu.Hardware) MapperFlush {
	return MapperFlush{page: page, hw: hw}
}

// Page returns the page whose mapping changed.
func (f MapperFlush) Page() Page {
	return f.page
}

// Flush invalidates the stale translations for the page on every core in
// the inner-shareable domain.
func (f *MapperFlush) Flush() {
	f.discharge()
	f.hw.InvalidateTLBAll()
}

// Ignore discharges the token without invalidating anything.
func (f *MapperFlush) Ignore() {
	f.discharge()
}

func (f *MapperFlush) discharge() {
	if f.hw == nil {
		panic("vmm: flush token was not produced by a mapper")
	}
	if f.done {
		panic("vmm: flush token already discharged")
	}
	f.done = true
}
