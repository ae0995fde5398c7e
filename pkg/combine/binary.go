package combine

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BinaryExtensions lists extensions treated as binary without reading the file.
var BinaryExtensions = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true,
	".bin": true, ".class": true, ".jar": true, ".pyc": true, ".wasm": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true, ".webp": true,
	".pdf": true, ".zip": true, ".gz": true, ".tgz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true,
	".mp3": true, ".mp4": true, ".mov": true, ".avi": true, ".wav": true, ".flac": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true,
	".sqlite": true, ".db": true,
}

// isBinaryFile reports whether a file looks binary: a NUL byte, or more than
// 30% non-printable bytes, in its first 512 bytes.
func isBinaryFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	buffer = buffer[:n]
	if len(buffer) == 0 {
		return false, nil
	}
	if bytes.Contains(buffer, []byte{0}) {
		return true, nil
	}

	nonPrintable := 0
	for _, b := range buffer {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(buffer)) > 0.3, nil
}

// isPrintable treats printable ASCII, common whitespace and UTF-8 bytes as text.
func isPrintable(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b >= 0x80
}

func isCommonBinaryExtension(path string) bool {
	return BinaryExtensions[strings.ToLower(filepath.Ext(path))]
}
