// Package bitmap implements the bit-level allocators described in spec.md
// §4.3: one bit per allocatable unit (inode number or data-block number),
// scanned byte by byte, LSB-first within each byte (the layout
// github.com/boljen/go-bitmap already uses), set on allocate, cleared on
// free. Modeled on disko's drivers/common/allocatormap.go.
package bitmap

import (
	"fmt"

	"github.com/boljen/go-bitmap"
)

// ErrNoSpace is returned by Allocate when every bit in the map is set.
var ErrNoSpace = fmt.Errorf("no free bit in bitmap")

// Allocator is an eager, in-memory bit allocator over a fixed-size bitmap.
// Allocation state lives entirely in AllocationBitmap; nothing is persisted
// until the caller explicitly serializes Bytes() to disk (spec.md: "bitmap
// flush happens at unmount").
type Allocator struct {
	AllocationBitmap bitmap.Bitmap
	TotalUnits       int
}

// New creates an Allocator with totalUnits bits, all initially free.
func New(totalUnits int) *Allocator {
	return &Allocator{
		AllocationBitmap: bitmap.New(totalUnits),
		TotalUnits:       totalUnits,
	}
}

// FromBytes restores an Allocator from a previously persisted bitmap image
// (read off disk at mount time), rather than starting empty.
func FromBytes(totalUnits int, data []byte) *Allocator {
	return &Allocator{
		AllocationBitmap: bitmap.NewSlice(data, totalUnits),
		TotalUnits:       totalUnits,
	}
}

// Bytes returns the bitmap's packed byte representation, ready to be
// written verbatim to the inode-bitmap or data-bitmap region of the image.
func (a *Allocator) Bytes() []byte {
	return a.AllocationBitmap.Data(false)
}

// Get reports whether the bit at index is currently allocated.
func (a *Allocator) Get(index int) bool {
	return a.AllocationBitmap.Get(index)
}

// Allocate scans byte-by-byte, LSB-first within each byte, for the first
// zero bit, sets it, and returns its index. It fails with ErrNoSpace if
// every bit in [0, TotalUnits) is already set.
func (a *Allocator) Allocate() (int, error) {
	for i := 0; i < a.TotalUnits; i++ {
		if !a.AllocationBitmap.Get(i) {
			a.AllocationBitmap.Set(i, true)
			return i, nil
		}
	}
	return 0, ErrNoSpace
}

// Free clears the bit at index. Freeing an already-free bit is a no-op:
// callers are expected to track what they own (spec.md §5's single-writer
// discipline means double-free can only be a caller bug, not a race).
func (a *Allocator) Free(index int) error {
	if index < 0 || index >= a.TotalUnits {
		return fmt.Errorf("bitmap: index %d out of range [0, %d)", index, a.TotalUnits)
	}
	a.AllocationBitmap.Set(index, false)
	return nil
}
