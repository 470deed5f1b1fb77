package vmm

import (
	"testing"

	"github.com/tangramos/aarch64/kernel/mem"
)

func TestPageAt(t *testing.T) {
	specs := []struct {
		addr   mem.VirtAddr
		size   mem.PageSize
		expErr bool
	}{
		{0x1000, mem.Size4KiB, false},
		{0x1001, mem.Size4KiB, true},
		{0x40200000, mem.Size2MiB, false},
		{0x40201000, mem.Size2MiB, true},
		{0xffff8000c0000000, mem.Size1GiB, false},
		{0xffff8000c0200000, mem.Size1GiB, true},
	}

	for specIndex, spec := range specs {
		page, err := PageAt(spec.addr, spec.size)
		if spec.expErr {
			if err != ErrPageNotAligned {
				t.Errorf("[spec %d] expected to get ErrPageNotAligned; got %v", specIndex, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}
		if page.Address() != spec.addr || page.Size() != spec.size {
			t.Errorf("[spec %d] expected page (%x, %v); got (%x, %v)",
				specIndex, spec.addr, spec.size, page.Address(), page.Size())
		}
	}
}

func TestPageContaining(t *testing.T) {
	specs := []struct {
		addr    mem.VirtAddr
		size    mem.PageSize
		expAddr mem.VirtAddr
	}{
		{0x1123, mem.Size4KiB, 0x1000},
		{0x40345678, mem.Size2MiB, 0x40200000},
		{0x40345678, mem.Size1GiB, 0x40000000},
	}

	for specIndex, spec := range specs {
		page := PageContaining(spec.addr, spec.size)
		if page.Address() != spec.expAddr || page.Size() != spec.size {
			t.Errorf("[spec %d] expected page (%x, %v); got (%x, %v)",
				specIndex, spec.expAddr, spec.size, page.Address(), page.Size())
		}
	}
}

func TestTableIndex(t *testing.T) {
	// 0x8080604400 selects index 1 at the root, then 2, 3 and 4 at the
	// lower levels.
	addr := mem.VirtAddr(0x8080604400)

	specs := []struct {
		level    uint8
		expIndex uint64
	}{
		{4, 1},
		{3, 2},
		{2, 3},
		{1, 4},
	}

	for specIndex, spec := range specs {
		if got := tableIndex(addr, spec.level); got != spec.expIndex {
			t.Errorf("[spec %d] expected index %d at level %d; got %d",
				specIndex, spec.expIndex, spec.level, got)
		}
	}
}

func TestTableAddr(t *testing.T) {
	specs := []struct {
		i4, i3, i2, i1 uint64
		expAddr        mem.VirtAddr
	}{
		{0, 0, 0, 0, 0},
		{1, 2, 3, 4, 0x8080604000},
		// Index combinations that set bit 47 must sign-extend into the
		// upper address region.
		{256, 0, 0, 0, 0xffff800000000000},
		{511, 511, 511, 511, 0xfffffffffffff000},
	}

	for specIndex, spec := range specs {
		if got := tableAddr(spec.i4, spec.i3, spec.i2, spec.i1); got != spec.expAddr {
			t.Errorf("[spec %d] expected address %x; got %x", specIndex, spec.expAddr, got)
		}
	}
}

func TestTableAddrIndexRoundTrip(t *testing.T) {
	addr := tableAddr(1, 2, 3, 4)

	for level, expIndex := range map[uint8]uint64{4: 1, 3: 2, 2: 3, 1: 4} {
		if got := tableIndex(addr, level); got != expIndex {
			t.Errorf("expected index %d at level %d; got %d", expIndex, level, got)
		}
	}
}
