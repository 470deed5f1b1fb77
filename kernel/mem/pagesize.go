package mem

// PageSize identifies one of the translation granule mapping sizes supported
// by the MMU. The size selects both the alignment requirement for pages and
// frames and the translation table level at which a mapping of that size
// terminates.
type PageSize uint8

const (
	// Size4KiB describes a standard 4KiB page mapped by a level 1 entry.
	Size4KiB PageSize = iota

	// Size2MiB describes a 2MiB block mapped by a level 2 entry.
	Size2MiB

	// Size1GiB describes a 1GiB block mapped by a level 3 entry.
	Size1GiB
)

// Bytes returns the size of a page of this size in bytes.
func (s PageSize) Bytes() Size {
	switch s {
	case Size2MiB:
		return 2 * Mb
	case Size1GiB:
		return Gb
	default:
		return 4 * Kb
	}
}

// Level returns the translation table level whose entry terminates the walk
// for a mapping of this size. Level 4 is the root of the hierarchy and level
// 1 maps 4KiB pages.
func (s PageSize) Level() uint8 {
	switch s {
	case Size2MiB:
		return 2
	case Size1GiB:
		return 3
	default:
		return 1
	}
}

// String implements fmt.Stringer.
func (s PageSize) String() string {
	switch s {
	case Size2MiB:
		return "2MiB"
	case Size1GiB:
		return "1GiB"
	default:
		return "4KiB"
	}
}
