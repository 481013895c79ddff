//go:build !linux

package hw

import "errors"

// OpenKernel is only available on Linux.
func OpenKernel(path string) (Device, error) {
	return nil, errors.New("hw: kernel backend requires linux")
}
