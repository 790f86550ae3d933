package blorb

import (
	"fmt"
	"math"

	"github.com/samcharles93/ififf/pkg/iff"
)

// Builder assembles a bundle. The resource index is written first, then the
// metadata chunks in the order they were added, then the resources.
type Builder struct {
	resources []builderEntry
	seen      map[resKey]struct{}
	chunks    []*iff.Chunk
}

type builderEntry struct {
	usage  Usage
	number uint32
	chunk  *iff.Chunk
}

func NewBuilder() *Builder {
	return &Builder{seen: make(map[resKey]struct{})}
}

// AddResource adds chunk as resource number of the given usage.
func (b *Builder) AddResource(usage Usage, number uint32, chunk *iff.Chunk) error {
	if !usage.valid() {
		return fmt.Errorf("blorb: usage %q is not 4 bytes", string(usage))
	}
	if chunk == nil {
		return fmt.Errorf("blorb: nil chunk for %q %d", string(usage), number)
	}
	key := resKey{usage, number}
	if _, dup := b.seen[key]; dup {
		return fmt.Errorf("blorb: %q %d added twice", string(usage), number)
	}
	b.seen[key] = struct{}{}
	b.resources = append(b.resources, builderEntry{usage, number, chunk})
	return nil
}

// AddChunk adds a non-resource chunk such as IFhd, Reso or IFmd.
func (b *Builder) AddChunk(c *iff.Chunk) {
	b.chunks = append(b.chunks, c)
}

// Form lays the bundle out and returns its chunk tree.
func (b *Builder) Form() (*iff.Chunk, error) {
	for _, c := range b.chunks {
		if c == nil {
			return nil, fmt.Errorf("blorb: nil metadata chunk")
		}
		if c.ID == IDResourceIndex {
			return nil, fmt.Errorf("blorb: the resource index is generated by the builder")
		}
	}

	idxSize := 8 + 4 + len(b.resources)*indexEntrySize
	pos := uint64(12 + idxSize)
	for _, c := range b.chunks {
		pos += uint64(c.Size())
	}

	idx := make(ResourceIndex, 0, len(b.resources))
	for _, r := range b.resources {
		if pos > math.MaxUint32 {
			return nil, fmt.Errorf("blorb: %q %d starts beyond the 4 GiB offset limit", string(r.usage), r.number)
		}
		idx = append(idx, IndexEntry{Usage: r.usage, Number: r.number, Offset: uint32(pos)})
		pos += uint64(r.chunk.Size())
	}

	ridx, err := NewChunk(IDResourceIndex, idx)
	if err != nil {
		return nil, err
	}
	children := make([]*iff.Chunk, 0, 1+len(b.chunks)+len(b.resources))
	children = append(children, ridx)
	children = append(children, b.chunks...)
	for _, r := range b.resources {
		children = append(children, r.chunk)
	}
	return iff.NewForm(FormType, children...), nil
}

// Build serializes the bundle.
func (b *Builder) Build() ([]byte, error) {
	form, err := b.Form()
	if err != nil {
		return nil, err
	}
	return iff.Serialize(form)
}
