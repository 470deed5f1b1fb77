package vmm

import (
	"unsafe"

	"github.com/tangramos/aarch64/kernel/mem"
)

// tableEntryCount is the number of entries in a page table.
const tableEntryCount = 512

// PageTable describes one level of the translation table hierarchy: 512
// descriptors occupying exactly 4096 naturally aligned bytes.
type PageTable [tableEntryCount]PageTableEntry

// Zero clears all entries of the table.
func (pt *PageTable) Zero() {
	for i := range pt {
		pt[i].SetUnused()
	}
}

// TableResolverFn returns a typed view of the page table located at the
// given virtual address. The mapping code never dereferences raw addresses
// itself; every table access goes through the resolver so that tests can
// substitute a software table walker over simulated memory.
type TableResolverFn func(addr mem.VirtAddr) *PageTable

// directTableResolver reinterprets the address in place. This is the
// resolver used on real hardware, where the recursive mapping guarantees
// that the address resolves to the table's backing frame.
func directTableResolver(addr mem.VirtAddr) *PageTable {
	return (*PageTable)(unsafe.Pointer(uintptr(addr)))
}
