package mem

import "testing"

func TestVirtAddrAlignment(t *testing.T) {
	specs := []struct {
		addr         VirtAddr
		align        Size
		expDown      VirtAddr
		expUp        VirtAddr
		expIsAligned bool
	}{
		{0x1000, 4 * Kb, 0x1000, 0x1000, true},
		{0x1123, 4 * Kb, 0x1000, 0x2000, false},
		{0x200000, 2 * Mb, 0x200000, 0x200000, true},
		{0x234567, 2 * Mb, 0x200000, 0x400000, false},
		{0xffff000040000123, Gb, 0xffff000040000000, 0xffff000080000000, false},
	}

	for specIndex, spec := range specs {
		if got := spec.addr.AlignDown(spec.align); got != spec.expDown {
			t.Errorf("[spec %d] expected AlignDown to return %x; got %x", specIndex, spec.expDown, got)
		}
		if got := spec.addr.AlignUp(spec.align); got != spec.expUp {
			t.Errorf("[spec %d] expected AlignUp to return %x; got %x", specIndex, spec.expUp, got)
		}
		if got := spec.addr.IsAligned(spec.align); got != spec.expIsAligned {
			t.Errorf("[spec %d] expected IsAligned to return %t; got %t", specIndex, spec.expIsAligned, got)
		}
	}
}

func TestPhysAddrAlignment(t *testing.T) {
	addr := PhysAddr(0x40201123)

	if got := addr.AlignDown(2 * Mb); got != 0x40200000 {
		t.Errorf("expected AlignDown to return %x; got %x", 0x40200000, got)
	}
	if got := addr.AlignUp(2 * Mb); got != 0x40400000 {
		t.Errorf("expected AlignUp to return %x; got %x", 0x40400000, got)
	}
	if addr.IsAligned(4 * Kb) {
		t.Error("expected IsAligned to return false")
	}
}

func TestNewPhysAddr(t *testing.T) {
	if _, err := NewPhysAddr(1 << PhysAddrBits); err != ErrInvalidPhysAddr {
		t.Fatalf("expected to get ErrInvalidPhysAddr; got %v", err)
	}

	addr, err := NewPhysAddr((1 << PhysAddrBits) - 1)
	if err != nil {
		t.Fatal(err)
	}
	if exp := PhysAddr((1 << PhysAddrBits) - 1); addr != exp {
		t.Fatalf("expected to get address %x; got %x", exp, addr)
	}
}
