//go:build !linux

package extensibility

import (
	"errors"
	"os"
)

func blockPublication(f *os.File, request uint) error {
	return errors.ErrUnsupported
}
