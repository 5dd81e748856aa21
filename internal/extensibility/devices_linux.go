//go:build linux

package extensibility

import (
	"os"

	"golang.org/x/sys/unix"
)

func blockPublication(f *os.File, request uint) error {
	return unix.IoctlSetInt(int(f.Fd()), request, 1)
}
