//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package memory

import "errors"

func peakResidentSetSize() (uint64, error) {
	return 0, errors.New("peak resident set size not supported on this platform")
}
