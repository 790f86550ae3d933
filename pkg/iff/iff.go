// Package iff implements the Interchange File Format chunk container used by
// Interactive-Fiction resource bundles and save states.
//
// A chunk is a 4-byte identifier, a big-endian 32-bit length and a payload.
// On the wire an odd-length payload is followed by one zero pad byte that is
// never counted in the length. Composite chunks (FORM, LIST, CAT ) carry a
// 4-byte sub-identifier followed by an ordered run of child chunks.
//
// The package works on in-memory buffers only. Parsed trees alias the buffer
// they were parsed from, so that buffer must not be modified afterwards.
package iff

import (
	"fmt"
	"strings"
)

const (
	headerSize = 8
	subIDSize  = 4

	// maxDepth bounds composite nesting so hostile input cannot recurse without limit.
	maxDepth = 64
)

// ID is a 4-character chunk identifier.
type ID [4]byte

// Identifiers understood by every registry.
var (
	IDForm = ID{'F', 'O', 'R', 'M'}
	IDList = ID{'L', 'I', 'S', 'T'}
	IDCat  = ID{'C', 'A', 'T', ' '}

	IDAuthor     = ID{'A', 'U', 'T', 'H'}
	IDAnnotation = ID{'A', 'N', 'N', 'O'}
	IDCopyright  = ID{'(', 'c', ')', ' '}
	IDName       = ID{'N', 'A', 'M', 'E'}
)

// ParseID converts a 4-byte printable ASCII string into an ID.
func ParseID(s string) (ID, error) {
	var id ID
	if len(s) != len(id) {
		return id, fmt.Errorf("iff: identifier %q must be exactly 4 bytes", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return id, fmt.Errorf("iff: identifier %q is not printable ASCII", s)
		}
	}
	copy(id[:], s)
	return id, nil
}

// MustID is ParseID for identifiers known at compile time. It panics on bad input.
func MustID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return string(id[:])
}

// Trimmed returns the identifier without its trailing space padding ("PNG " -> "PNG").
func (id ID) Trimmed() string {
	return strings.TrimRight(string(id[:]), " ")
}
