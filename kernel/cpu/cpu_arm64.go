//go:build arm64

package cpu

import "github.com/tangramos/aarch64/kernel/mem"

// Native returns the Hardware implementation for the current platform.
func Native() Hardware {
	return native{}
}

// native implements Hardware using privileged arm64 instructions. The
// instruction stubs live in cpu_arm64.s.
type native struct{}

func (native) DataSyncBarrier(domain ShareDomain, access BarrierAccess) {
	switch {
	case domain == DomainInnerShareable && access == AccessStore:
		dsbISHST()
	case domain == DomainInnerShareable && access == AccessLoad:
		dsbISHLD()
	case domain == DomainInnerShareable:
		dsbISH()
	case domain == DomainNonShareable && access == AccessStore:
		dsbNSHST()
	case domain == DomainNonShareable && access == AccessLoad:
		dsbNSHLD()
	case domain == DomainNonShareable:
		dsbNSH()
	case access == AccessStore:
		dsbST()
	case access == AccessLoad:
		dsbLD()
	default:
		dsbSY()
	}
}

func (native) DataMemBarrier(domain ShareDomain, access BarrierAccess) {
	switch {
	case domain == DomainInnerShareable && access == AccessStore:
		dmbISHST()
	case domain == DomainInnerShareable && access == AccessLoad:
		dmbISHLD()
	case domain == DomainInnerShareable:
		dmbISH()
	case domain == DomainNonShareable && access == AccessStore:
		dmbNSHST()
	case domain == DomainNonShareable && access == AccessLoad:
		dmbNSHLD()
	case domain == DomainNonShareable:
		dmbNSH()
	case access == AccessStore:
		dmbST()
	case access == AccessLoad:
		dmbLD()
	default:
		dmbSY()
	}
}

func (native) InstrBarrier() {
	isb()
}

func (native) InvalidateTLBAll() {
	// All stage 1 translations used at EL1, in the inner-shareable
	// domain.
	dsbISHST()
	tlbiVMALLE1IS()
	dsbISH()
	isb()
}

func (native) LocalInvalidateTLBAll() {
	dsbNSHST()
	tlbiVMALLE1()
	dsbNSH()
	isb()
}

func (native) InvalidateTLBAddr(addr mem.VirtAddr) {
	// Translations for the page containing addr, for all ASID values, in
	// the inner-shareable domain.
	dsbISHST()
	tlbiVAAE1IS(uint64(addr) >> mem.PageShift)
	dsbISH()
	isb()
}

func (native) InvalidateTLBASID(asid uint16) {
	dsbISHST()
	tlbiASIDE1IS(uint64(asid) << 48)
	dsbISH()
	isb()
}

func (native) FlushICacheAll() {
	icIALLUIS()
	dsbISH()
	isb()
}

func (native) LocalFlushICacheAll() {
	icIALLU()
	dsbNSH()
	isb()
}

func (native) DCacheLineOp(op CacheOp, point CachePoint, addr mem.VirtAddr) {
	switch {
	case op == CacheClean && point == PointOfUnification:
		dcCVAU(uint64(addr))
	case op == CacheClean:
		dcCVAC(uint64(addr))
	case op == CacheInvalidate && point == PointOfCoherency:
		dcIVAC(uint64(addr))
	case op == CacheCleanInvalidate && point == PointOfCoherency:
		dcCIVAC(uint64(addr))
	default:
		panic("cpu: invalidating data cache operations are only defined to the point of coherency")
	}
}

func (n native) DCacheRangeOp(op CacheOp, point CachePoint, start mem.VirtAddr, size mem.Size, domain ShareDomain) {
	lineSize := n.DCacheLineSize()
	end := start + mem.VirtAddr(size)
	for addr := start.AlignDown(lineSize); addr < end; addr += mem.VirtAddr(lineSize) {
		n.DCacheLineOp(op, point, addr)
	}
	n.DataSyncBarrier(domain, AccessAll)
	isb()
}

func (native) DCacheLineSize() mem.Size {
	// DminLine holds log2 of the line size in words.
	return mem.Size(4 << (readCTR() >> 16 & 0xf))
}

func (native) ICacheLineSize() mem.Size {
	return mem.Size(4 << (readCTR() & 0xf))
}

func (native) ReadTTBR(which uint8) mem.PhysAddr {
	return mem.PhysAddr(readTTBR(which) & ttbrBaddrMask)
}

func (native) WriteTTBR(which uint8, addr mem.PhysAddr) {
	writeTTBR(which, uint64(addr)&ttbrBaddrMask)
}

func (native) ReadTTBRASID(which uint8) (uint16, mem.PhysAddr) {
	raw := readTTBR(which)
	return uint16(raw >> 48), mem.PhysAddr(raw & ttbrBaddrMask)
}

func (native) WriteTTBRASID(which uint8, asid uint16, addr mem.PhysAddr) {
	writeTTBR(which, uint64(asid)<<48|uint64(addr)&ttbrBaddrMask)
}

func (native) AddressTranslate(addr mem.VirtAddr) uint64 {
	return atS1E1R(uint64(addr))
}

// ttbrBaddrMask covers the translation table base address bits of
// TTBR0_EL1/TTBR1_EL1.
const ttbrBaddrMask = 0x0000_ffff_ffff_fffe

func dsbSY()
func dsbST()
func dsbLD()
func dsbISH()
func dsbISHST()
func dsbISHLD()
func dsbNSH()
func dsbNSHST()
func dsbNSHLD()

func dmbSY()
func dmbST()
func dmbLD()
func dmbISH()
func dmbISHST()
func dmbISHLD()
func dmbNSH()
func dmbNSHST()
func dmbNSHLD()

func isb()

func tlbiVMALLE1IS()
func tlbiVMALLE1()
func tlbiVAAE1IS(pageNum uint64)
func tlbiASIDE1IS(arg uint64)

func icIALLUIS()
func icIALLU()
func dcCVAC(addr uint64)
func dcCVAU(addr uint64)
func dcIVAC(addr uint64)
func dcCIVAC(addr uint64)

func readCTR() uint64

func readTTBR(which uint8) uint64
func writeTTBR(which uint8, val uint64)

func atS1E1R(addr uint64) uint64
