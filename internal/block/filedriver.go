package block

import (
	"fmt"
	"io"
	"os"
)

// FileDriver adapts an *os.File into the fixed-I/O-size Driver contract, the
// way a real ddriver_open/ddriver_ioctl/ddriver_read/ddriver_write block
// device would. It always seeks before every unit read/write, matching the
// "seek, then read/write exactly one unit" discipline real block drivers
// impose.
type FileDriver struct {
	file    *os.File
	ioSize  int
	units   int64
}

// OpenFile opens path and queries its size via Stat to determine the number
// of I/O units available, the way ddriver_ioctl(IOC_REQ_DEVICE_SIZE) would
// on a real block device.
func OpenFile(path string, ioSize int) (*FileDriver, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("block: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("block: stat %s: %w", path, err)
	}

	return &FileDriver{
		file:   f,
		ioSize: ioSize,
		units:  info.Size() / int64(ioSize),
	}, nil
}

func (d *FileDriver) Seek(offset int64) error {
	_, err := d.file.Seek(offset, io.SeekStart)
	return err
}

func (d *FileDriver) ReadUnit(buf []byte) error {
	if len(buf) != d.ioSize {
		return fmt.Errorf("block: read unit buffer must be %d bytes, got %d", d.ioSize, len(buf))
	}
	_, err := io.ReadFull(d.file, buf)
	return err
}

func (d *FileDriver) WriteUnit(buf []byte) error {
	if len(buf) != d.ioSize {
		return fmt.Errorf("block: write unit buffer must be %d bytes, got %d", d.ioSize, len(buf))
	}
	_, err := d.file.Write(buf)
	return err
}

func (d *FileDriver) IOSize() int      { return d.ioSize }
func (d *FileDriver) TotalUnits() int64 { return d.units }

func (d *FileDriver) Close() error { return d.file.Close() }
