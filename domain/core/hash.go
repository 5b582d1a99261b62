package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Fingerprint identifies a prepared recipe: same steps, same parameters,
// same learned state ordering yields the same fingerprint.
type Fingerprint Hash

func (f Fingerprint) String() string { return Hash(f).String() }

// ComputeFingerprint hashes an ordered list of step descriptors plus a
// sorted parameter map per step. Map iteration order must not leak into
// the fingerprint.
func ComputeFingerprint(steps []string, params []map[string]any) Fingerprint {
	var data strings.Builder
	for i, s := range steps {
		data.WriteString(s)
		if i < len(params) && params[i] != nil {
			keys := make([]string, 0, len(params[i]))
			for k := range params[i] {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				data.WriteString(k)
				data.WriteString(fmt.Sprintf("%v", params[i][k]))
			}
		}
	}
	return Fingerprint(NewHash([]byte(data.String())))
}

// ComputeGridEntryHash produces a stable identity for one hyperparameter
// combination, independent of map iteration order.
func ComputeGridEntryHash(entry map[string]any) Hash {
	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, k := range keys {
		data.WriteString(k)
		data.WriteString(fmt.Sprintf("%v", entry[k]))
	}
	return NewHash([]byte(data.String()))
}
