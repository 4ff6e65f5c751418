// Command newfsd mounts a newfs volume at a host mountpoint via FUSE
// (spec.md §6): it opens the device, mounts the engine, bridges it onto
// the kernel's FUSE protocol, and blocks until the mount is torn down,
// at which point it unmounts the engine cleanly and exits 0.
package main

import (
	"log"
	"os"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/urfave/cli/v2"

	"github.com/arnegard/newfs"
	"github.com/arnegard/newfs/internal/block"
	"github.com/arnegard/newfs/internal/fuseops"
)

const defaultIOSize = 2048

func main() {
	app := &cli.App{
		Name:  "newfsd",
		Usage: "Mount a newfs volume on the host filesystem",
		Commands: []*cli.Command{
			{
				Name:      "mount",
				Usage:     "Mount a device image at a mountpoint",
				ArgsUsage: "MOUNTPOINT",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "device", Required: true, Usage: "path to the backing device image"},
					&cli.BoolFlag{Name: "debug", Usage: "log engine and FUSE activity to stderr"},
				},
				Action: runMount,
			},
			{
				Name:      "format",
				Usage:     "Write a fresh volume image to a file",
				ArgsUsage: "DEVICE",
				Action:    runFormat,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("newfsd: %s", err.Error())
	}
}

func runMount(c *cli.Context) error {
	mountpoint := c.Args().First()
	if mountpoint == "" {
		return cli.Exit("missing MOUNTPOINT argument", 1)
	}

	driver, err := block.OpenFile(c.String("device"), defaultIOSize)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var opts []newfs.Option
	if c.Bool("debug") {
		opts = append(opts, newfs.WithLogger(os.Stderr))
	}
	vol := newfs.New(driver, opts...)
	if err := vol.Mount(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	// The engine has no locks, so the FUSE server must hand it one request
	// at a time.
	server, err := fuseops.Bridge(vol, mountpoint, &fs.Options{
		MountOptions: fuse.MountOptions{
			SingleThreaded: true,
			Debug:          c.Bool("debug"),
		},
	})
	if err != nil {
		_ = vol.Unmount()
		return cli.Exit(err.Error(), 1)
	}

	server.Wait()

	if err := vol.Unmount(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func runFormat(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("missing DEVICE argument", 1)
	}

	image := newfs.FormatImage(defaultIOSize)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
