package vmm

import (
	"github.com/tangramos/aarch64/kernel"
	"github.com/tangramos/aarch64/kernel/cpu"
	"github.com/tangramos/aarch64/kernel/mem"
	"github.com/tangramos/aarch64/kernel/mem/pmm"
)

// RecursivePageTable accesses the translation table hierarchy of one address
// space through a recursively mapped root table entry: the entry at the
// recursive index of the root table points back at the root table's own
// frame.
//
// The recursive slot lets every table be reached as an ordinary virtual
// address without a dedicated physical memory window. Resolving an address
// whose leading indices repeat the recursive index sends the hardware table
// walker back into the root once per repetition, stripping one level of
// indirection each time:
//
//   - root table:    indices (R, R, R, R)
//   - level 3 table: indices (R, R, R, i4)
//   - level 2 table: indices (R, R, i4, i3)
//   - level 1 table: indices (R, i4, i3, i2)
//
// A RecursivePageTable represents exclusive access to its address space;
// concurrent structural edits must be serialized by the caller.
type RecursivePageTable struct {
	recursiveIndex uint64
	hw             cpu.Hardware
	tableAt        TableResolverFn
}

// NewRecursivePageTable returns a mapper for the address space whose root
// table is recursively mapped at the given index of itself. The hardware
// handle is used for the barriers and TLB maintenance the mapper's mutations
// require.
func NewRecursivePageTable(recursiveIndex uint16, hw cpu.Hardware) (*RecursivePageTable, *kernel.Error) {
	return newRecursivePageTable(recursiveIndex, hw, directTableResolver)
}

// NewRecursivePageTableWithResolver is like NewRecursivePageTable but routes
// every table access through the supplied resolver instead of dereferencing
// the recursive addresses directly. It is intended for executing the mapper
// against simulated table memory.
func NewRecursivePageTableWithResolver(recursiveIndex uint16, hw cpu.Hardware, tableAt TableResolverFn) (*RecursivePageTable, *kernel.Error) {
	return newRecursivePageTable(recursiveIndex, hw, tableAt)
}

func newRecursivePageTable(recursiveIndex uint16, hw cpu.Hardware, tableAt TableResolverFn) (*RecursivePageTable, *kernel.Error) {
	if recursiveIndex >= tableEntryCount {
		return nil, ErrInvalidRecursiveIndex
	}
	return &RecursivePageTable{
		recursiveIndex: uint64(recursiveIndex),
		hw:             hw,
		tableAt:        tableAt,
	}, nil
}

// RecursiveIndex returns the root table slot that is mapped to the root
// table itself.
func (rpt *RecursivePageTable) RecursiveIndex() uint16 {
	return uint16(rpt.recursiveIndex)
}

// p4Addr through p1Addr compute the virtual addresses at which the tables
// governing addr appear under the recursive mapping.
func (rpt *RecursivePageTable) p4Addr() mem.VirtAddr {
	r := rpt.recursiveIndex
	return tableAddr(r, r, r, r)
}

func (rpt *RecursivePageTable) p3Addr(addr mem.VirtAddr) mem.VirtAddr {
	r := rpt.recursiveIndex
	return tableAddr(r, r, r, tableIndex(addr, 4))
}

func (rpt *RecursivePageTable) p2Addr(addr mem.VirtAddr) mem.VirtAddr {
	r := rpt.recursiveIndex
	return tableAddr(r, r, tableIndex(addr, 4), tableIndex(addr, 3))
}

func (rpt *RecursivePageTable) p1Addr(addr mem.VirtAddr) mem.VirtAddr {
	r := rpt.recursiveIndex
	return tableAddr(r, tableIndex(addr, 4), tableIndex(addr, 3), tableIndex(addr, 2))
}

// createNextTable returns the next-level table referenced by entry, creating
// it first if the entry is unused: a frame is requested from the allocator,
// linked into the entry with default table flags and normal cacheable
// memory, made visible to the table walker with a store barrier and only
// then zeroed through its recursive address. An entry already holding a
// table is returned as is.
func (rpt *RecursivePageTable) createNextTable(entry *PageTableEntry, nextTableAddr mem.VirtAddr, allocator pmm.FrameAllocator) (*PageTable, *kernel.Error) {
	created := false

	if entry.IsUnused() {
		frame, err := allocator.AllocFrame()
		if err != nil {
			return nil, ErrFrameAllocationFailed
		}
		entry.SetFrame(frame, DefaultTableFlags, MemoryNormal.Value())
		created = true
	}
	if entry.IsBlock() {
		return nil, ErrParentEntryHugePage
	}

	table := rpt.tableAt(nextTableAddr)
	if created {
		// The new link must reach the other observers of the tables
		// before the zeroing stores are issued through it.
		rpt.hw.DataSyncBarrier(cpu.DomainInnerShareable, cpu.AccessStore)
		table.Zero()
	}
	return table, nil
}

// MapTo implements Mapper. The page and frame must carry the same page size
// tag; mismatched sizes are a contract violation and panic.
func (rpt *RecursivePageTable) MapTo(page Page, frame pmm.Frame, flags PageTableFlag, attr MemoryAttribute, allocator pmm.FrameAllocator) (MapperFlush, *kernel.Error) {
	if page.Size() != frame.Size() {
		panic("vmm: page and frame must use the same page size")
	}

	addr := page.Address()
	p4 := rpt.tableAt(rpt.p4Addr())

	p3, err := rpt.createNextTable(&p4[tableIndex(addr, 4)], rpt.p3Addr(addr), allocator)
	if err != nil {
		return MapperFlush{}, err
	}
	entry := &p3[tableIndex(addr, 3)]

	if page.Size() != mem.Size1GiB {
		p2, err := rpt.createNextTable(entry, rpt.p2Addr(addr), allocator)
		if err != nil {
			return MapperFlush{}, err
		}
		entry = &p2[tableIndex(addr, 2)]

		if page.Size() != mem.Size2MiB {
			p1, err := rpt.createNextTable(entry, rpt.p1Addr(addr), allocator)
			if err != nil {
				return MapperFlush{}, err
			}
			entry = &p1[tableIndex(addr, 1)]
		}
	}

	if !entry.IsUnused() {
		return MapperFlush{}, ErrPageAlreadyMapped
	}

	if page.Size() == mem.Size4KiB {
		entry.SetFrame(frame, flags, attr.Value())
	} else {
		entry.SetBlock(frame.Address(), page.Size(), flags, attr.Value())
	}
	return newFlush(page, rpt.hw), nil
}

// checkParent validates an intermediate entry during a walk.
func checkParent(entry PageTableEntry) *kernel.Error {
	switch {
	case entry.IsUnused():
		return ErrPageNotMapped
	case entry.IsBlock():
		return ErrParentEntryHugePage
	default:
		return nil
	}
}

// entryFor walks the hierarchy top-down and returns the descriptor that
// terminates the walk for page, short-circuiting at the first unused or
// blocking entry along the path.
func (rpt *RecursivePageTable) entryFor(page Page) (*PageTableEntry, *kernel.Error) {
	addr := page.Address()

	p4 := rpt.tableAt(rpt.p4Addr())
	if err := checkParent(p4[tableIndex(addr, 4)]); err != nil {
		return nil, err
	}

	p3 := rpt.tableAt(rpt.p3Addr(addr))
	entry := &p3[tableIndex(addr, 3)]

	if page.Size() != mem.Size1GiB {
		if err := checkParent(*entry); err != nil {
			return nil, err
		}
		p2 := rpt.tableAt(rpt.p2Addr(addr))
		entry = &p2[tableIndex(addr, 2)]

		if page.Size() != mem.Size2MiB {
			if err := checkParent(*entry); err != nil {
				return nil, err
			}
			p1 := rpt.tableAt(rpt.p1Addr(addr))
			entry = &p1[tableIndex(addr, 1)]
		}
	}

	if entry.IsUnused() {
		return nil, ErrPageNotMapped
	}
	return entry, nil
}

// GetEntry implements Mapper.
func (rpt *RecursivePageTable) GetEntry(page Page) (PageTableEntry, *kernel.Error) {
	entry, err := rpt.entryFor(page)
	if err != nil {
		return 0, err
	}
	return *entry, nil
}

// GetEntryMut implements Mapper.
func (rpt *RecursivePageTable) GetEntryMut(page Page) (*PageTableEntry, *kernel.Error) {
	return rpt.entryFor(page)
}

// Unmap implements Mapper.
func (rpt *RecursivePageTable) Unmap(page Page) (pmm.Frame, MapperFlush, *kernel.Error) {
	entry, err := rpt.entryFor(page)
	if err != nil {
		return pmm.Frame{}, MapperFlush{}, err
	}

	var frame pmm.Frame
	if page.Size() == mem.Size4KiB {
		frame, err = entry.Frame()
		switch err {
		case nil:
		case ErrHugeFrame:
			return pmm.Frame{}, MapperFlush{}, ErrParentEntryHugePage
		default:
			return pmm.Frame{}, MapperFlush{}, ErrPageNotMapped
		}
	} else {
		if !entry.IsBlock() {
			// A table of smaller mappings lives here, so no
			// mapping of the requested size exists.
			return pmm.Frame{}, MapperFlush{}, ErrPageNotMapped
		}
		var ferr *kernel.Error
		frame, ferr = pmm.FrameAt(entry.Addr(), page.Size())
		if ferr != nil {
			return pmm.Frame{}, MapperFlush{}, ErrInvalidFrameAddress
		}
	}

	entry.SetUnused()
	return frame, newFlush(page, rpt.hw), nil
}

// UpdateFlags implements Mapper.
func (rpt *RecursivePageTable) UpdateFlags(page Page, flags PageTableFlag) (MapperFlush, *kernel.Error) {
	entry, err := rpt.entryFor(page)
	if err != nil {
		return MapperFlush{}, err
	}
	entry.SetFlags(flags)
	return newFlush(page, rpt.hw), nil
}

// TranslatePage implements Mapper.
func (rpt *RecursivePageTable) TranslatePage(page Page) (pmm.Frame, *kernel.Error) {
	entry, err := rpt.entryFor(page)
	if err != nil {
		return pmm.Frame{}, err
	}
	frame, ferr := pmm.FrameAt(entry.Addr(), page.Size())
	if ferr != nil {
		return pmm.Frame{}, ErrInvalidFrameAddress
	}
	return frame, nil
}

// IdentityMap implements Mapper.
func (rpt *RecursivePageTable) IdentityMap(frame pmm.Frame, flags PageTableFlag, attr MemoryAttribute, allocator pmm.FrameAllocator) (MapperFlush, *kernel.Error) {
	page := PageContaining(mem.VirtAddr(frame.Address()), frame.Size())
	return rpt.MapTo(page, frame, flags, attr, allocator)
}

// Translate implements Mapper. The walk inspects each level's entry so that
// block mappings of any size resolve to their tagged frame.
func (rpt *RecursivePageTable) Translate(addr mem.VirtAddr) (TranslateResult, *kernel.Error) {
	p4 := rpt.tableAt(rpt.p4Addr())
	if p4[tableIndex(addr, 4)].IsUnused() {
		return TranslateResult{}, ErrPageNotMapped
	}

	p3 := rpt.tableAt(rpt.p3Addr(addr))
	if entry := p3[tableIndex(addr, 3)]; entry.IsUnused() {
		return TranslateResult{}, ErrPageNotMapped
	} else if entry.IsBlock() {
		return blockResult(entry, addr, mem.Size1GiB)
	}

	p2 := rpt.tableAt(rpt.p2Addr(addr))
	if entry := p2[tableIndex(addr, 2)]; entry.IsUnused() {
		return TranslateResult{}, ErrPageNotMapped
	} else if entry.IsBlock() {
		return blockResult(entry, addr, mem.Size2MiB)
	}

	p1 := rpt.tableAt(rpt.p1Addr(addr))
	entry := p1[tableIndex(addr, 1)]
	if entry.IsUnused() {
		return TranslateResult{}, ErrPageNotMapped
	}
	return blockResult(entry, addr, mem.Size4KiB)
}

// blockResult tags the frame referenced by a terminal entry with the size of
// the level it was found at.
func blockResult(entry PageTableEntry, addr mem.VirtAddr, size mem.PageSize) (TranslateResult, *kernel.Error) {
	frame, err := pmm.FrameAt(entry.Addr(), size)
	if err != nil {
		return TranslateResult{}, ErrInvalidFrameAddress
	}
	return TranslateResult{
		Frame:  frame,
		Offset: uint64(addr) & uint64(size.Bytes()-1),
	}, nil
}

// TranslateAddr implements Mapper.
func (rpt *RecursivePageTable) TranslateAddr(addr mem.VirtAddr) (mem.PhysAddr, *kernel.Error) {
	result, err := rpt.Translate(addr)
	if err != nil {
		return 0, err
	}
	return result.Frame.Address() + mem.PhysAddr(result.Offset), nil
}

var _ Mapper = (*RecursivePageTable)(nil)
