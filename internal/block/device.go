// Package block adapts a fixed-I/O-size block driver (open/seek/read/write
// exactly one I/O unit, ioctl for geometry, close) into arbitrary-offset,
// arbitrary-length reads and writes, the way disko's BlockDevice adapts a
// raw stream into block-granular I/O (drivers/common/blockdevice.go).
//
// A "block" for the filesystem above this package is always twice the
// driver's I/O unit (spec.md §3); this package itself only knows about I/O
// units, and leaves the block/unit ratio to its caller.
package block

import (
	"fmt"
	"io"
)

// Driver is the contract a host block-device bridge exposes: seek to an
// absolute byte offset, read or write exactly one I/O unit at the current
// position, and report geometry. It mirrors the spec's block driver
// contract (spec.md §6) rather than Go's io.ReaderAt/WriterAt, because the
// real driver this sits on top of cannot do arbitrary-length or
// arbitrary-offset I/O.
type Driver interface {
	io.Closer
	Seek(offset int64) error
	ReadUnit(buf []byte) error
	WriteUnit(buf []byte) error
	// IOSize returns the size, in bytes, of one read/write unit.
	IOSize() int
	// TotalUnits returns the device size expressed as a count of I/O units.
	TotalUnits() int64
}

// Device performs aligned I/O against a Driver on behalf of callers that
// want to read or write an arbitrary byte range. Reads are satisfied by
// reading whole I/O units and slicing out the requested sub-range; writes
// are satisfied with a read-modify-write over the smallest aligned range
// that covers [off, off+len).
type Device struct {
	driver Driver
}

// New wraps a Driver in a Device.
func New(driver Driver) *Device {
	return &Device{driver: driver}
}

// IOSize returns the size of one I/O unit, in bytes.
func (d *Device) IOSize() int {
	return d.driver.IOSize()
}

// Size returns the total addressable size of the device, in bytes.
func (d *Device) Size() int64 {
	return int64(d.driver.IOSize()) * d.driver.TotalUnits()
}

// Close releases the underlying driver.
func (d *Device) Close() error {
	return d.driver.Close()
}

func (d *Device) alignedRange(off int64, length int) (start, end int64) {
	unit := int64(d.driver.IOSize())
	start = (off / unit) * unit
	last := off + int64(length)
	end = ((last + unit - 1) / unit) * unit
	return start, end
}

// readAligned reads the aligned byte range [start, end) one I/O unit at a
// time into a freshly allocated buffer.
func (d *Device) readAligned(start, end int64) ([]byte, error) {
	unit := int64(d.driver.IOSize())
	buf := make([]byte, end-start)
	pos := start
	for pos < end {
		if err := d.driver.Seek(pos); err != nil {
			return nil, fmt.Errorf("block: seek to %d: %w", pos, err)
		}
		unitBuf := buf[pos-start : pos-start+unit]
		if err := d.driver.ReadUnit(unitBuf); err != nil {
			return nil, fmt.Errorf("block: read unit at %d: %w", pos, err)
		}
		pos += unit
	}
	return buf, nil
}

// Read fills a buffer of length `length` starting at byte offset `off`,
// rounding out to I/O-unit boundaries as needed and copying only the
// requested sub-range back to the caller.
func (d *Device) Read(off int64, length int) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if off < 0 || off+int64(length) > d.Size() {
		return nil, fmt.Errorf("block: read [%d, %d) out of bounds (size %d)", off, off+int64(length), d.Size())
	}

	start, end := d.alignedRange(off, length)
	scratch, err := d.readAligned(start, end)
	if err != nil {
		return nil, err
	}

	out := make([]byte, length)
	copy(out, scratch[off-start:off-start+int64(length)])
	return out, nil
}

// Write stores `data` at byte offset `off`. Any I/O unit only partially
// covered by `data` is read first so the untouched bytes survive the
// write-back (read-modify-write).
func (d *Device) Write(off int64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if off < 0 || off+int64(len(data)) > d.Size() {
		return fmt.Errorf("block: write [%d, %d) out of bounds (size %d)", off, off+int64(len(data)), d.Size())
	}

	start, end := d.alignedRange(off, len(data))
	scratch, err := d.readAligned(start, end)
	if err != nil {
		return err
	}
	copy(scratch[off-start:off-start+int64(len(data))], data)

	unit := int64(d.driver.IOSize())
	pos := start
	for pos < end {
		if err := d.driver.Seek(pos); err != nil {
			return fmt.Errorf("block: seek to %d: %w", pos, err)
		}
		unitBuf := scratch[pos-start : pos-start+unit]
		if err := d.driver.WriteUnit(unitBuf); err != nil {
			return fmt.Errorf("block: write unit at %d: %w", pos, err)
		}
		pos += unit
	}
	return nil
}
