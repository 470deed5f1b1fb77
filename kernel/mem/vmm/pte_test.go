package vmm

import (
	"testing"

	"github.com/tangramos/aarch64/kernel"
	"github.com/tangramos/aarch64/kernel/mem"
	"github.com/tangramos/aarch64/kernel/mem/pmm"
)

func TestPageTableFlagBitPositions(t *testing.T) {
	specs := []struct {
		flag   PageTableFlag
		expBit uint
	}{
		{FlagValid, 0},
		{FlagTableOrPage, 1},
		{FlagNonSecure, 5},
		{FlagUserAccessible, 6},
		{FlagReadOnly, 7},
		{FlagAccessFlag, 10},
		{FlagNotGlobal, 11},
		{FlagDBM, 51},
		{FlagSoftWrite, 51},
		{FlagContiguous, 52},
		{FlagPrivilegedExecNever, 53},
		{FlagExecNever, 54},
		{FlagSoftDirty, 55},
		{FlagSoftSwapped, 56},
		{FlagSoftWritableShared, 57},
		{FlagSoftReadOnlyShared, 58},
		{FlagTablePrivilegedExecNever, 59},
		{FlagTableExecNever, 60},
		{FlagTableNoUserAccess, 61},
		{FlagTableReadOnly, 62},
		{FlagTableNonSecure, 63},
	}

	for specIndex, spec := range specs {
		if exp := PageTableFlag(1) << spec.expBit; spec.flag != exp {
			t.Errorf("[spec %d] expected flag to use bit %d; got %x", specIndex, spec.expBit, uint64(spec.flag))
		}
	}
}

func TestPageTableEntryStates(t *testing.T) {
	var pte PageTableEntry

	if !pte.IsUnused() {
		t.Fatal("expected a zero entry to be unused")
	}
	if !pte.IsBlock() {
		t.Fatal("expected a zero entry to read as a block descriptor")
	}

	frame, err := pmm.FrameAt(0x2000, mem.Size4KiB)
	if err != nil {
		t.Fatal(err)
	}

	pte.SetFrame(frame, DefaultPageFlags, MemoryNormal.Value())
	if pte.IsUnused() {
		t.Fatal("expected entry to be in use after SetFrame")
	}
	if pte.IsBlock() {
		t.Fatal("expected a page descriptor not to read as a block")
	}

	pte.SetUnused()
	if !pte.IsUnused() {
		t.Fatal("expected entry to be unused after SetUnused")
	}
}

func TestPageTableEntryFrame(t *testing.T) {
	var pte PageTableEntry

	if _, err := pte.Frame(); err != ErrFrameNotPresent {
		t.Fatalf("expected to get ErrFrameNotPresent; got %v", err)
	}

	pte.SetBlock(0x40200000, mem.Size2MiB, DefaultBlockFlags, MemoryNormal.Value())
	if _, err := pte.Frame(); err != ErrHugeFrame {
		t.Fatalf("expected to get ErrHugeFrame; got %v", err)
	}

	frame, err := pmm.FrameAt(0x2000, mem.Size4KiB)
	if err != nil {
		t.Fatal(err)
	}
	pte.SetFrame(frame, DefaultPageFlags, MemoryNormal.Value())

	got, ferr := pte.Frame()
	if ferr != nil {
		t.Fatal(ferr)
	}
	if got != frame {
		t.Fatalf("expected Frame to return %v; got %v", frame, got)
	}
}

func TestPageTableEntryBlockTruncation(t *testing.T) {
	var pte PageTableEntry

	// The address must be truncated to the block size's alignment before
	// it is stored.
	pte.SetBlock(0x40201000, mem.Size2MiB, DefaultBlockFlags, MemoryNormal.Value())
	if got := pte.Addr(); got != 0x40200000 {
		t.Fatalf("expected block address to be truncated to %x; got %x", 0x40200000, got)
	}
}

func TestPageTableEntryFieldIsolation(t *testing.T) {
	var pte PageTableEntry

	frame, err := pmm.FrameAt(0x40201000, mem.Size4KiB)
	if err != nil {
		t.Fatal(err)
	}
	pte.SetFrame(frame, DefaultPageFlags, MemoryNormal.Value())

	flags := DefaultPageFlags | FlagReadOnly | FlagExecNever | FlagSoftDirty
	pte.SetFlags(flags)
	if got := pte.Flags(); got != flags {
		t.Fatalf("expected Flags to return %x; got %x", uint64(flags), uint64(got))
	}
	if got := pte.Addr(); got != frame.Address() {
		t.Fatalf("expected SetFlags to preserve the output address %x; got %x", frame.Address(), got)
	}
	if got := pte.Attr(); got != MemoryNormal.Value() {
		t.Fatalf("expected SetFlags to preserve the attribute fields %x; got %x", uint64(MemoryNormal.Value()), uint64(got))
	}

	pte.SetAttr(MemoryDevice.Value())
	if got := pte.Attr(); got != MemoryDevice.Value() {
		t.Fatalf("expected Attr to return %x; got %x", uint64(MemoryDevice.Value()), uint64(got))
	}
	if got := pte.Flags(); got != flags {
		t.Fatalf("expected SetAttr to preserve the flags %x; got %x", uint64(flags), uint64(got))
	}
	if got := pte.Addr(); got != frame.Address() {
		t.Fatalf("expected SetAttr to preserve the output address %x; got %x", frame.Address(), got)
	}
}

func TestPageTableEntrySetterContracts(t *testing.T) {
	var pte PageTableEntry

	frame, err := pmm.FrameAt(0x2000, mem.Size4KiB)
	if err != nil {
		t.Fatal(err)
	}

	expectPanic(t, "SetFrame with block flags", func() {
		pte.SetFrame(frame, DefaultBlockFlags, MemoryNormal.Value())
	})
	expectPanic(t, "SetBlock with table flags", func() {
		pte.SetBlock(0x40200000, mem.Size2MiB, DefaultTableFlags, MemoryNormal.Value())
	})
}

func TestPageTableZero(t *testing.T) {
	var (
		table PageTable
		err   *kernel.Error
		frame pmm.Frame
	)

	if frame, err = pmm.FrameAt(0x2000, mem.Size4KiB); err != nil {
		t.Fatal(err)
	}
	for i := range table {
		table[i].SetFrame(frame, DefaultTableFlags, MemoryNormal.Value())
	}

	table.Zero()

	for i := range table {
		if !table[i].IsUnused() {
			t.Fatalf("expected entry %d to be unused after Zero", i)
		}
	}
}

func expectPanic(t *testing.T, descr string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("expected %s to panic", descr)
		}
	}()
	fn()
}
