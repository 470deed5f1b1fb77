package vmm

// MemoryAttribute names one of the memory kinds configured in the global
// memory attribute configuration register (MAIR). Descriptors reference a
// kind symbolically through its register index; the cacheability semantics
// themselves are programmed once at boot by whoever owns the register.
type MemoryAttribute uint8

const (
	// MemoryNormal is write-back cacheable memory, shared within the
	// inner-shareable domain.
	MemoryNormal MemoryAttribute = iota

	// MemoryDevice is non-gathering, non-reordering device memory with
	// early write acknowledgement.
	MemoryDevice

	// MemoryNormalNonCacheable is normal memory bypassing the caches.
	MemoryNormalNonCacheable
)

// Shareability field values (descriptor bits 8-9).
const (
	shareNone  PageTableAttr = 0b00 << 8
	shareOuter PageTableAttr = 0b10 << 8
	shareInner PageTableAttr = 0b11 << 8
)

// attrIndexShift positions the 3-bit MAIR index field (descriptor bits 2-4).
const attrIndexShift = 2

// Index returns the fixed slot assigned to this memory kind in the MAIR
// register.
func (a MemoryAttribute) Index() uint64 {
	return uint64(a)
}

// Value returns the descriptor attribute fields selecting this memory kind:
// the MAIR index plus the shareability required for it.
func (a MemoryAttribute) Value() PageTableAttr {
	attr := PageTableAttr(a.Index() << attrIndexShift)
	switch a {
	case MemoryNormal:
		return attr | shareInner
	default:
		return attr | shareOuter
	}
}

// MairValue returns the 8-bit attribute encoding that must be programmed
// into the MAIR slot returned by Index for this kind to behave as named.
func (a MemoryAttribute) MairValue() uint64 {
	switch a {
	case MemoryDevice:
		// Device-nGnRE
		return 0x04
	case MemoryNormalNonCacheable:
		// Normal, inner and outer non-cacheable
		return 0x44
	default:
		// Normal, inner and outer write-back non-transient,
		// read and write allocate
		return 0xff
	}
}

// String implements fmt.Stringer.
func (a MemoryAttribute) String() string {
	switch a {
	case MemoryDevice:
		return "device"
	case MemoryNormalNonCacheable:
		return "normal non-cacheable"
	default:
		return "normal"
	}
}
