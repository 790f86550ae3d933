package iff

import (
	"encoding/binary"
	"fmt"
)

// Parse reads the chunk that starts at offset 0 of buf.
//
// Composite identifiers known to reg are split into children, each parsed
// through reg again. Identifiers with a registered codec are decoded into
// Chunk.Value; anything else stays opaque. Bytes after the first chunk are
// ignored. A nil registry behaves like NewRegistry(Base()).
func Parse(buf []byte, reg *Registry) (*Chunk, error) {
	if reg == nil {
		reg = NewRegistry(Base())
	}
	c, _, err := parseChunk(buf, 0, len(buf), reg, 0)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// parseChunk reads one chunk at off without reading past limit. It returns the
// offset of the next record, which may be limit+1 when the pad byte after a
// final odd-length record is missing.
func parseChunk(buf []byte, off, limit int, reg *Registry, depth int) (*Chunk, int, error) {
	if avail := limit - off; avail < headerSize {
		return nil, 0, &FormatError{
			Offset: off,
			Reason: fmt.Sprintf("need %d header bytes, have %d", headerSize, avail),
		}
	}

	var id ID
	copy(id[:], buf[off:off+4])
	n := uint64(binary.BigEndian.Uint32(buf[off+4 : off+headerSize]))
	start := off + headerSize
	if n > uint64(limit-start) {
		return nil, 0, &FormatError{
			ID:     id,
			Offset: off,
			Reason: fmt.Sprintf("declared length %d exceeds the %d bytes available", n, limit-start),
		}
	}
	end := start + int(n)

	c := &Chunk{ID: id, Offset: off}
	if reg.IsComposite(id) {
		if err := parseComposite(c, buf, start, end, reg, depth); err != nil {
			return nil, 0, err
		}
	} else {
		c.payload = buf[start:end:end]
		if codec, ok := reg.Lookup(id); ok && codec.Decode != nil {
			v, err := codec.Decode(c.payload)
			if err != nil {
				return nil, 0, &FormatError{ID: id, Offset: off, Reason: "decode payload", Err: err}
			}
			c.Value = v
		}
	}

	next := end
	if n&1 == 1 {
		next++
	}
	return c, next, nil
}

func parseComposite(c *Chunk, buf []byte, start, end int, reg *Registry, depth int) error {
	if depth >= maxDepth {
		return &FormatError{ID: c.ID, Offset: c.Offset, Reason: fmt.Sprintf("composite nesting deeper than %d", maxDepth)}
	}
	if end-start < subIDSize {
		return &FormatError{ID: c.ID, Offset: c.Offset, Reason: "payload shorter than the sub-identifier"}
	}
	c.composite = true
	copy(c.SubID[:], buf[start:start+subIDSize])

	pos := start + subIDSize
	for pos < end {
		child, next, err := parseChunk(buf, pos, end, reg, depth+1)
		if err != nil {
			return err
		}
		c.Children = append(c.Children, child)
		pos = next
	}
	return nil
}
