// Package pmm contains the types used to describe and allocate physical
// memory frames.
package pmm

import (
	"github.com/tangramos/aarch64/kernel"
	"github.com/tangramos/aarch64/kernel/mem"
)

// ErrFrameNotAligned is returned when constructing a frame from an address
// that is not aligned to the requested frame size.
var ErrFrameNotAligned = &kernel.Error{Module: "pmm", Message: "frame address is not aligned to the frame size"}

// Frame describes a physical memory region whose size and alignment are
// given by its page size tag. Once a frame is linked into a translation
// table, ownership of the region transfers to whoever unmaps it.
type Frame struct {
	addr mem.PhysAddr
	size mem.PageSize
}

// FrameAt returns the frame of the given size starting at addr. The address
// must be aligned to the frame size.
func FrameAt(addr mem.PhysAddr, size mem.PageSize) (Frame, *kernel.Error) {
	if !addr.IsAligned(size.Bytes()) {
		return Frame{}, ErrFrameNotAligned
	}
	return Frame{addr: addr, size: size}, nil
}

// FrameContaining returns the frame of the given size that contains addr.
func FrameContaining(addr mem.PhysAddr, size mem.PageSize) Frame {
	return Frame{addr: addr.AlignDown(size.Bytes()), size: size}
}

// Address returns the physical address of the first byte of the frame.
func (f Frame) Address() mem.PhysAddr {
	return f.addr
}

// Size returns the page size tag of the frame.
func (f Frame) Size() mem.PageSize {
	return f.size
}

// FrameAllocator is implemented by physical memory managers that can hand
// out 4KiB frames on demand.
type FrameAllocator interface {
	// AllocFrame reserves a free 4KiB frame and returns it. An error is
	// returned if no free frame is available.
	AllocFrame() (Frame, *kernel.Error)
}

// FrameDeallocator is implemented by physical memory managers that can
// release frames previously handed out by a FrameAllocator. The mapping code
// never frees frames itself; the interface exists so that address-space
// teardown code can return unmapped frames to their allocator.
type FrameDeallocator interface {
	DeallocFrame(Frame)
}

// AllocFrameFn adapts a plain function to the FrameAllocator interface.
type AllocFrameFn func() (Frame, *kernel.Error)

// AllocFrame implements FrameAllocator.
func (fn AllocFrameFn) AllocFrame() (Frame, *kernel.Error) {
	return fn()
}
