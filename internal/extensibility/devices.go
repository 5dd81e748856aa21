package extensibility

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// DefaultSkipPrefixes are device families that never publish sensor data:
	// serial ports, flash, ram disks and MMC.
	DefaultSkipPrefixes = []string{"tty", "mtd", "ram", "mmc"}
	// DefaultSkipNames are single nodes left untouched on HIL entry.
	DefaultSkipNames = []string{"mavlink", "console", "null"}
)

// DeviceIoctl issues the publication-block request on an open device node.
type DeviceIoctl func(f *os.File, request uint) error

// DirDevices enumerates sensor devices under a device root and blocks their
// publication with an ioctl.
type DirDevices struct {
	Root         string
	SkipPrefixes []string
	SkipNames    []string
	// Request is the publication-block ioctl number for the target kernel.
	Request uint

	ioctl DeviceIoctl
}

// NewDirDevices creates a DirDevices with the default skip lists and the
// platform ioctl.
func NewDirDevices(root string, request uint) *DirDevices {
	return &DirDevices{
		Root:         root,
		SkipPrefixes: DefaultSkipPrefixes,
		SkipNames:    DefaultSkipNames,
		Request:      request,
		ioctl:        blockPublication,
	}
}

// WithIoctl replaces the ioctl implementation.
func (d *DirDevices) WithIoctl(fn DeviceIoctl) *DirDevices {
	d.ioctl = fn
	return d
}

func (d *DirDevices) skip(name string) bool {
	for _, p := range d.SkipPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, n := range d.SkipNames {
		if name == n {
			return true
		}
	}
	return false
}

// Blockable lists candidate devices in directory order.
func (d *DirDevices) Blockable() ([]string, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.Root, err)
	}
	var out []string
	for _, e := range entries {
		if d.skip(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(d.Root, e.Name()))
	}
	return out, nil
}

// Block opens the device and issues the publication-block ioctl.
func (d *DirDevices) Block(device string) error {
	f, err := os.Open(device)
	if err != nil {
		return fmt.Errorf("open %s: %w", device, err)
	}
	defer f.Close()

	ioctl := d.ioctl
	if ioctl == nil {
		ioctl = blockPublication
	}
	if err := ioctl(f, d.Request); err != nil {
		return fmt.Errorf("block %s: %w", device, err)
	}
	return nil
}
