//go:build !linux

package memory

import "errors"

func residentSetSize() (uint64, error) {
	return 0, errors.New("current resident set size not supported on this platform")
}
