package iff

import (
	"bytes"
	"fmt"
	"sort"
)

// Codec is the decode/encode pair for one chunk identifier. Decode turns a
// payload into a typed value and Encode is its inverse; header and padding
// are handled by Serialize.
type Codec struct {
	Decode func(payload []byte) (any, error)
	Encode func(v any) ([]byte, error)
}

// TypedCodec adapts a typed decode/encode pair to a Codec. Encode accepts
// either a T or a non-nil *T.
func TypedCodec[T any](decode func([]byte) (T, error), encode func(T) ([]byte, error)) Codec {
	return Codec{
		Decode: func(p []byte) (any, error) {
			v, err := decode(p)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		Encode: func(v any) ([]byte, error) {
			switch t := v.(type) {
			case T:
				return encode(t)
			case *T:
				if t != nil {
					return encode(*t)
				}
			}
			var want T
			return nil, fmt.Errorf("iff: cannot encode %T, want %T", v, want)
		},
	}
}

// Module is one format's contribution to a Registry.
type Module struct {
	Name       string
	Codecs     map[ID]Codec
	Composites []ID
}

// Registry maps identifiers to codecs and records which identifiers are
// composites. It is immutable once built and safe for concurrent use.
type Registry struct {
	codecs     map[ID]Codec
	composites map[ID]struct{}
	owners     map[ID]string
}

// NewRegistry composes modules in order. A later module replaces an earlier
// module's codec for the same identifier.
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{
		codecs:     make(map[ID]Codec),
		composites: make(map[ID]struct{}),
		owners:     make(map[ID]string),
	}
	for _, m := range modules {
		for id, codec := range m.Codecs {
			r.codecs[id] = codec
			r.owners[id] = m.Name
		}
		for _, id := range m.Composites {
			r.composites[id] = struct{}{}
			if _, ok := r.owners[id]; !ok {
				r.owners[id] = m.Name
			}
		}
	}
	return r
}

func (r *Registry) Lookup(id ID) (Codec, bool) {
	if r == nil {
		return Codec{}, false
	}
	c, ok := r.codecs[id]
	return c, ok
}

func (r *Registry) IsComposite(id ID) bool {
	if r == nil {
		return false
	}
	_, ok := r.composites[id]
	return ok
}

// Owner names the module that registered id, or "" when it is unknown.
func (r *Registry) Owner(id ID) string {
	if r == nil {
		return ""
	}
	return r.owners[id]
}

// IDs lists every known identifier in byte order.
func (r *Registry) IDs() []ID {
	if r == nil {
		return nil
	}
	out := make([]ID, 0, len(r.owners))
	for id := range r.owners {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// NewChunk encodes v with the codec registered for id and returns a leaf
// chunk whose Value is the canonical decode of the encoded payload.
func (r *Registry) NewChunk(id ID, v any) (*Chunk, error) {
	codec, ok := r.Lookup(id)
	if !ok || codec.Encode == nil {
		return nil, fmt.Errorf("iff: no encoder registered for %q", id.String())
	}
	payload, err := codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("iff: encode %q: %w", id.String(), err)
	}
	c := NewChunk(id, payload)
	if codec.Decode != nil {
		decoded, err := codec.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("iff: re-decode %q: %w", id.String(), err)
		}
		c.Value = decoded
	}
	return c, nil
}

// ValueAs returns the chunk's decoded value as a T.
func ValueAs[T any](c *Chunk) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.Value.(T)
	return v, ok
}
