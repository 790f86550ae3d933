// Package quetzal reads and writes Quetzal save states: a FORM of type IFZS
// holding the story identity, the dynamic memory (XOR-compressed against the
// pristine story image, or raw) and the interpreter's call stack.
//
// Save and Restore work on caller-owned buffers and never retain them.
// Restore validates the whole file before returning anything, so a failed
// restore leaves the caller's state as it was.
package quetzal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samcharles93/ififf/pkg/gameid"
	"github.com/samcharles93/ififf/pkg/iff"
)

var (
	// ErrIncompatible means the save belongs to another game or is not a
	// Quetzal file at all.
	ErrIncompatible = errors.New("quetzal: save is not compatible with this game")

	// ErrCompression means the memory image could not be rebuilt.
	ErrCompression = errors.New("quetzal: memory does not decompress to the story's dynamic memory")

	// ErrMalformedFrame marks a call frame that cannot be decoded. It also
	// matches iff.ErrFormat.
	ErrMalformedFrame = fmt.Errorf("%w: malformed call frame", iff.ErrFormat)
)

// Chunk identifiers.
var (
	FormType = iff.ID{'I', 'F', 'Z', 'S'}

	IDCompressedMemory   = iff.ID{'C', 'M', 'e', 'm'}
	IDUncompressedMemory = iff.ID{'U', 'M', 'e', 'm'}
	IDStacks             = iff.ID{'S', 't', 'k', 's'}
	IDInterpreterData    = iff.ID{'I', 'n', 't', 'D'}
	IDIdentity           = gameid.ChunkID
)

var registry = sync.OnceValue(func() *iff.Registry {
	return iff.NewRegistry(iff.Base(), gameid.Module(), Module())
})

// layout decodes only the chunks needed to tell whose save a file is. Stks
// and IntD stay opaque until the identity has been checked.
var layout = sync.OnceValue(func() *iff.Registry {
	return iff.NewRegistry(iff.Base(), gameid.Module())
})

// Registry is the chunk registry used to parse save files. The returned
// value is shared and must be treated as read-only.
func Registry() *iff.Registry {
	return registry()
}
