package block

import (
	"fmt"
	"io"

	"github.com/xaionaro-go/bytesextra"
)

// MemDriver backs the Driver contract with an in-memory byte slice via
// bytesextra.NewReadWriteSeeker, the same helper disko's test images package
// uses to turn a []byte into an io.ReadWriteSeeker (testing/images.go). It
// exists so engine and bridge tests never need a real file on disk.
type MemDriver struct {
	stream io.ReadWriteSeeker
	ioSize int
	units  int64
}

// NewMemDriver allocates a zero-filled image of totalUnits*ioSize bytes.
func NewMemDriver(ioSize int, totalUnits int64) *MemDriver {
	image := make([]byte, int64(ioSize)*totalUnits)
	return &MemDriver{
		stream: bytesextra.NewReadWriteSeeker(image),
		ioSize: ioSize,
		units:  totalUnits,
	}
}

// NewMemDriverFromImage wraps an existing byte slice (e.g. one produced by a
// prior mount/unmount cycle) instead of allocating a fresh one.
func NewMemDriverFromImage(image []byte, ioSize int) *MemDriver {
	return &MemDriver{
		stream: bytesextra.NewReadWriteSeeker(image),
		ioSize: ioSize,
		units:  int64(len(image)) / int64(ioSize),
	}
}

func (d *MemDriver) Seek(offset int64) error {
	_, err := d.stream.Seek(offset, io.SeekStart)
	return err
}

func (d *MemDriver) ReadUnit(buf []byte) error {
	if len(buf) != d.ioSize {
		return fmt.Errorf("block: read unit buffer must be %d bytes, got %d", d.ioSize, len(buf))
	}
	_, err := io.ReadFull(d.stream, buf)
	return err
}

func (d *MemDriver) WriteUnit(buf []byte) error {
	if len(buf) != d.ioSize {
		return fmt.Errorf("block: write unit buffer must be %d bytes, got %d", d.ioSize, len(buf))
	}
	_, err := d.stream.Write(buf)
	return err
}

func (d *MemDriver) IOSize() int       { return d.ioSize }
func (d *MemDriver) TotalUnits() int64 { return d.units }

func (d *MemDriver) Close() error { return nil }
