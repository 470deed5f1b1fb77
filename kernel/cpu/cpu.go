// Package cpu provides access to the privileged hardware primitives required
// by the memory management code: memory barriers, TLB invalidation, cache
// maintenance and translation-table-base register access.
//
// The primitives are grouped behind the Hardware interface so that the
// mapping code can be exercised against a simulated backend. The arm64
// implementation is returned by Native; on any other platform Native returns
// the Unsupported stub.
package cpu

import "github.com/tangramos/aarch64/kernel/mem"

// ShareDomain selects the set of observers that a barrier or broadcast
// maintenance operation must reach.
type ShareDomain uint8

const (
	// DomainFullSystem orders accesses against every observer in the
	// system.
	DomainFullSystem ShareDomain = iota

	// DomainInnerShareable orders accesses against the other cores that
	// share this core's translation tables.
	DomainInnerShareable

	// DomainNonShareable orders accesses against the local core only.
	DomainNonShareable
)

// BarrierAccess restricts a barrier to loads, stores or both.
type BarrierAccess uint8

const (
	// AccessAll orders both loads and stores.
	AccessAll BarrierAccess = iota

	// AccessStore orders stores only.
	AccessStore

	// AccessLoad orders loads only.
	AccessLoad
)

// CacheOp selects a cache maintenance operation.
type CacheOp uint8

const (
	// CacheClean writes dirty lines back to memory.
	CacheClean CacheOp = iota

	// CacheInvalidate discards cached lines.
	CacheInvalidate

	// CacheCleanInvalidate writes dirty lines back and then discards
	// them.
	CacheCleanInvalidate
)

// CachePoint selects the memory-hierarchy point a cache maintenance
// operation must be visible at.
type CachePoint uint8

const (
	// PointOfCoherency is where all agents in the system observe the
	// same copy of memory.
	PointOfCoherency CachePoint = iota

	// PointOfUnification is where the instruction cache, data cache and
	// translation table walks of the cores in the inner-shareable domain
	// observe the same copy of memory.
	PointOfUnification
)

// Hardware describes the privileged instruction-level primitives consumed by
// the memory management code.
type Hardware interface {
	// DataSyncBarrier completes when all affected memory accesses issued
	// before it are complete for the given domain.
	DataSyncBarrier(domain ShareDomain, access BarrierAccess)

	// DataMemBarrier orders the affected memory accesses issued before
	// and after it for the given domain.
	DataMemBarrier(domain ShareDomain, access BarrierAccess)

	// InstrBarrier flushes the pipeline so that subsequent instructions
	// observe the effects of prior context-changing operations.
	InstrBarrier()

	// InvalidateTLBAll invalidates all cached translations on every core
	// in the inner-shareable domain and synchronizes before returning.
	InvalidateTLBAll()

	// LocalInvalidateTLBAll invalidates all cached translations on the
	// current core only.
	LocalInvalidateTLBAll()

	// InvalidateTLBAddr invalidates cached translations for the page
	// containing addr, for all address-space identifiers, on every core
	// in the inner-shareable domain.
	InvalidateTLBAddr(addr mem.VirtAddr)

	// InvalidateTLBASID invalidates cached translations tagged with the
	// given address-space identifier on every core in the inner-shareable
	// domain.
	InvalidateTLBASID(asid uint16)

	// FlushICacheAll invalidates all instruction caches in the
	// inner-shareable domain to the point of unification.
	FlushICacheAll()

	// LocalFlushICacheAll invalidates the instruction cache of the
	// current core to the point of unification.
	LocalFlushICacheAll()

	// DCacheLineOp performs op on the data cache line containing addr.
	// Invalidating operations are only defined to the point of
	// coherency.
	DCacheLineOp(op CacheOp, point CachePoint, addr mem.VirtAddr)

	// DCacheRangeOp performs op on every data cache line overlapping
	// [start, start+size) and then synchronizes for the given domain.
	DCacheRangeOp(op CacheOp, point CachePoint, start mem.VirtAddr, size mem.Size, domain ShareDomain)

	// DCacheLineSize returns the size in bytes of the smallest data
	// cache line in the system.
	DCacheLineSize() mem.Size

	// ICacheLineSize returns the size in bytes of the smallest
	// instruction cache line in the system.
	ICacheLineSize() mem.Size

	// ReadTTBR returns the physical address held by translation table
	// base register 0 or 1.
	ReadTTBR(which uint8) mem.PhysAddr

	// WriteTTBR installs a new translation table root into translation
	// table base register 0 or 1.
	WriteTTBR(which uint8, addr mem.PhysAddr)

	// ReadTTBRASID returns the address-space identifier and root address
	// held by translation table base register 0 or 1.
	ReadTTBRASID(which uint8) (uint16, mem.PhysAddr)

	// WriteTTBRASID installs a new translation table root tagged with an
	// address-space identifier into register 0 or 1.
	WriteTTBRASID(which uint8, asid uint16, addr mem.PhysAddr)

	// AddressTranslate asks the translation hardware to resolve addr for
	// a stage 1 EL1 read and returns the raw physical address result
	// register contents.
	AddressTranslate(addr mem.VirtAddr) uint64
}

const unsupportedMsg = "cpu: hardware primitives are not supported on this platform"

// Unsupported is the explicit stand-in for platforms without an
// implementation of the hardware primitives. Every method panics; callers on
// unsupported platforms must inject their own Hardware implementation.
type Unsupported struct{}

// DataSyncBarrier implements Hardware.
func (Unsupported) DataSyncBarrier(ShareDomain, BarrierAccess) { panic(unsupportedMsg) }

// DataMemBarrier implements Hardware.
func (Unsupported) DataMemBarrier(ShareDomain, BarrierAccess) { panic(unsupportedMsg) }

// InstrBarrier implements Hardware.
func (Unsupported) InstrBarrier() { panic(unsupportedMsg) }

// InvalidateTLBAll implements Hardware.
func (Unsupported) InvalidateTLBAll() { panic(unsupportedMsg) }

// LocalInvalidateTLBAll implements Hardware.
func (Unsupported) LocalInvalidateTLBAll() { panic(unsupportedMsg) }

// InvalidateTLBAddr implements Hardware.
func (Unsupported) InvalidateTLBAddr(mem.VirtAddr) { panic(unsupportedMsg) }

// InvalidateTLBASID implements Hardware.
func (Unsupported) InvalidateTLBASID(uint16) { panic(unsupportedMsg) }

// FlushICacheAll implements Hardware.
func (Unsupported) FlushICacheAll() { panic(unsupportedMsg) }

// LocalFlushICacheAll implements Hardware.
func (Unsupported) LocalFlushICacheAll() { panic(unsupportedMsg) }

// DCacheLineOp implements Hardware.
func (Unsupported) DCacheLineOp(CacheOp, CachePoint, mem.VirtAddr) { panic(unsupportedMsg) }

// DCacheRangeOp implements Hardware.
func (Unsupported) DCacheRangeOp(CacheOp, CachePoint, mem.VirtAddr, mem.Size, ShareDomain) {
	panic(unsupportedMsg)
}

// DCacheLineSize implements Hardware.
func (Unsupported) DCacheLineSize() mem.Size { panic(unsupportedMsg) }

// ICacheLineSize implements Hardware.
func (Unsupported) ICacheLineSize() mem.Size { panic(unsupportedMsg) }

// ReadTTBR implements Hardware.
func (Unsupported) ReadTTBR(uint8) mem.PhysAddr { panic(unsupportedMsg) }

// WriteTTBR implements Hardware.
func (Unsupported) WriteTTBR(uint8, mem.PhysAddr) { panic(unsupportedMsg) }

// ReadTTBRASID implements Hardware.
func (Unsupported) ReadTTBRASID(uint8) (uint16, mem.PhysAddr) { panic(unsupportedMsg) }

// WriteTTBRASID implements Hardware.
func (Unsupported) WriteTTBRASID(uint8, uint16, mem.PhysAddr) { panic(unsupportedMsg) }

// AddressTranslate implements Hardware.
func (Unsupported) AddressTranslate(mem.VirtAddr) uint64 { panic(unsupportedMsg) }
