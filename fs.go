package newfs

import (
	"fmt"
	"io"
	"log"

	"github.com/hashicorp/go-multierror"

	"github.com/arnegard/newfs/internal/bitmap"
	"github.com/arnegard/newfs/internal/block"
)

// Filesystem is the single process-wide mutable value spec.md §9
// recommends in place of a bag of globals: the super block, both bitmaps,
// and the root-rooted dentry/inode tree, constructed by Mount and consumed
// by Unmount. Every operation in ops.go takes it by exclusive pointer
// receiver; spec.md §5 guarantees there is never more than one caller.
type Filesystem struct {
	super       *SuperBlock
	inodeBitmap *bitmap.Allocator
	dataBitmap  *bitmap.Allocator
	device      *block.Device
	root        *Dentry
	mounted     bool
	log         *log.Logger
}

// Option configures a Filesystem at construction time.
type Option func(*Filesystem)

// WithLogger directs the opaque debug stream (spec.md §6) to w instead of
// discarding it.
func WithLogger(w io.Writer) Option {
	return func(fs *Filesystem) {
		fs.log = log.New(w, "newfs: ", log.LstdFlags)
	}
}

// New wraps driver in a Filesystem, ready for Mount. It does not touch the
// device until Mount is called.
func New(driver block.Driver, opts ...Option) *Filesystem {
	fs := &Filesystem{
		device: block.New(driver),
		log:    log.New(io.Discard, "newfs: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// Mount brings the on-disk tree into memory (spec.md §4.8). It reads the
// super block, adopting its geometry if the magic number matches, or
// falling back to the compile-time default geometry (and marking the
// volume newly initialized) otherwise. It then loads both bitmaps, builds
// the synthetic root dentry, allocates and flushes inode 0 if the volume
// was just initialized in memory, and finally faults inode 0 back in through the
// codec so any already-persisted children are attached.
func (fs *Filesystem) Mount() error {
	if fs.mounted {
		return nil
	}

	ioSize := fs.device.IOSize()

	raw, err := fs.device.Read(0, onDiskSuperSize)
	if err != nil {
		return ErrIO.Wrap(err)
	}

	var super *SuperBlock
	onDisk, decodeErr := decodeSuper(raw)
	if decodeErr == nil && onDisk.Magic == MagicNumber {
		super = superFromOnDisk(ioSize, onDisk)
		fs.log.Printf("mount: found existing volume, magic ok")
	} else {
		super = NewDefaultSuperBlock(ioSize)
		super.IsInit = true
		fs.log.Printf("mount: no valid super block, formatting in memory")
	}
	fs.super = super

	if err := fs.loadBitmaps(); err != nil {
		return err
	}

	fs.root = &Dentry{Name: "/", Ino: RootIno, Ftype: Dir}

	if fs.super.IsInit {
		root := newInode(RootIno, Dir)
		bit, err := fs.inodeBitmap.Allocate()
		if err != nil {
			return ErrNoSpace.Wrap(err)
		}
		if bit != RootIno {
			return ErrInvalid.WithMessage("root inode did not allocate at inode 0 on a fresh volume")
		}
		fs.super.SzUsage++
		fs.root.Inode = root
		root.Naming = fs.root
		if err := fs.syncInodeRecord(root); err != nil {
			return err
		}
	}

	loaded, err := fs.readInode(fs.root, RootIno)
	if err != nil {
		return err
	}
	fs.root.Inode = loaded
	loaded.Naming = fs.root

	fs.mounted = true
	return nil
}

// Unmount flushes the entire in-memory tree back to disk, then writes the
// super block and both bitmaps, and finally closes the device (spec.md
// §4.8). If the filesystem was never mounted, Unmount is a no-op success.
func (fs *Filesystem) Unmount() error {
	if !fs.mounted {
		return nil
	}

	var errs *multierror.Error
	if err := fs.syncInode(fs.root.Inode); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("sync tree: %w", err))
	}

	superBytes := encodeSuper(fs.super.toOnDisk())
	if err := fs.device.Write(0, superBytes); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("write super block: %w", err))
	}
	if err := fs.device.Write(fs.super.InoMapOffset*int64(fs.super.BlockSize), fs.inodeBitmap.Bytes()); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("write inode bitmap: %w", err))
	}
	if err := fs.device.Write(fs.super.DBMapOffset*int64(fs.super.BlockSize), fs.dataBitmap.Bytes()); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("write data bitmap: %w", err))
	}

	fs.inodeBitmap = nil
	fs.dataBitmap = nil
	fs.root = nil
	fs.mounted = false

	if err := fs.device.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close device: %w", err))
	}

	if errs.ErrorOrNil() != nil {
		return ErrIO.Wrap(errs)
	}
	return nil
}

func (fs *Filesystem) loadBitmaps() error {
	inoMapBytes, err := fs.device.Read(fs.super.InoMapOffset*int64(fs.super.BlockSize), int(fs.super.InoMapBlocks)*fs.super.BlockSize)
	if err != nil {
		return ErrIO.Wrap(err)
	}
	dbMapBytes, err := fs.device.Read(fs.super.DBMapOffset*int64(fs.super.BlockSize), int(fs.super.DBMapBlocks)*fs.super.BlockSize)
	if err != nil {
		return ErrIO.Wrap(err)
	}

	if fs.super.IsInit {
		fs.inodeBitmap = bitmap.New(fs.super.InoMax)
		fs.dataBitmap = bitmap.New(int(fs.super.DBBlocks))
	} else {
		fs.inodeBitmap = bitmap.FromBytes(fs.super.InoMax, inoMapBytes)
		fs.dataBitmap = bitmap.FromBytes(int(fs.super.DBBlocks), dbMapBytes)
	}
	return nil
}

// Mounted reports whether Mount has completed successfully and Unmount has
// not yet been called.
func (fs *Filesystem) Mounted() bool {
	return fs.mounted
}
