package threatintel

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/highwayhash"
)

var errUnsafeName = errors.New("unsafe file name")

var digestKey = []byte{
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10,
	0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18,
	0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F, 0x20,
}

// FileURL replaces everything after the last '/' of baseURL with name.
// For "https://host/downloads/misp/?C=M;O=D" and "x.json" this yields
// "https://host/downloads/misp/x.json".
func FileURL(baseURL, name string) string {
	i := strings.LastIndex(baseURL, "/")
	if i < 0 {
		return name
	}
	return baseURL[:i+1] + name
}

// PayloadDigest is a keyed 64 bit hash of a downloaded payload, used to
// correlate log lines with file content.
func PayloadDigest(data []byte) uint64 {
	return highwayhash.Sum64(data, digestKey)
}

// DetectMimeType sniffs the content type of a payload.
func DetectMimeType(data []byte) string {
	return mimetype.Detect(data).String()
}

// checkName rejects listing entries that would escape the save directory.
func checkName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%q: %w", name, errUnsafeName)
	}
	return nil
}
