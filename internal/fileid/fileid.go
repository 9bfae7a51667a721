// Package fileid derives stable identifiers for specification files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

const hashPrefix = "sha256:"

// SourceID returns the file's base name without its extension.
// "/specs/bank.yaml" becomes "bank".
func SourceID(path string) string {
	base := filepath.Base(filepath.Clean(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// ContentHash returns a hex sha256 digest of data, prefixed with "sha256:".
// Unchanged files keep the same hash across reloads.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hashPrefix + hex.EncodeToString(sum[:])
}

// Allocator hands out unique source IDs in call order. The first file named
// "bank" gets "bank", the next "bank-2", then "bank-3".
type Allocator struct {
	used map[string]int
}

// NewAllocator returns an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{used: make(map[string]int)}
}

// Next returns a unique source ID for path.
func (a *Allocator) Next(path string) string {
	id := SourceID(path)
	if id == "" {
		id = "spec"
	}
	n := a.used[id]
	candidate := id
	for n > 0 {
		candidate = fmt.Sprintf("%s-%d", id, n+1)
		if _, taken := a.used[candidate]; !taken {
			break
		}
		n++
	}
	a.used[id] = n + 1
	a.used[candidate] = max(a.used[candidate], 1)
	return candidate
}
