package iff

import "errors"

// Chunk is one node of a parsed or constructed chunk tree.
//
// Leaf chunks keep their payload bytes as read from the buffer; Value holds
// the structured decode when the registry knows the identifier and is nil for
// opaque chunks. Composite chunks carry SubID and Children instead of a
// payload and have their payload rebuilt from the children on serialization.
type Chunk struct {
	ID       ID
	SubID    ID
	Children []*Chunk
	Value    any

	// Offset is the position of the chunk header inside the buffer handed to
	// Parse, or -1 for chunks built in memory.
	Offset int

	payload   []byte
	composite bool
}

// NewChunk builds an opaque leaf chunk around payload.
func NewChunk(id ID, payload []byte) *Chunk {
	return &Chunk{ID: id, Offset: -1, payload: payload}
}

// NewComposite builds a composite chunk such as FORM, LIST or CAT .
func NewComposite(id, subID ID, children ...*Chunk) *Chunk {
	return &Chunk{ID: id, SubID: subID, Children: children, Offset: -1, composite: true}
}

// NewForm builds a FORM chunk with the given sub-identifier.
func NewForm(subID ID, children ...*Chunk) *Chunk {
	return NewComposite(IDForm, subID, children...)
}

func (c *Chunk) IsComposite() bool {
	return c != nil && c.composite
}

// Payload returns the chunk body without its header or pad byte.
func (c *Chunk) Payload() []byte {
	if c == nil {
		return nil
	}
	if !c.composite {
		return c.payload
	}
	out := make([]byte, 0, c.Len())
	out = append(out, c.SubID[:]...)
	for _, child := range c.Children {
		out = child.appendTo(out)
	}
	return out
}

// Len is the value written to the length field.
func (c *Chunk) Len() int {
	if c == nil {
		return 0
	}
	if !c.composite {
		return len(c.payload)
	}
	n := subIDSize
	for _, child := range c.Children {
		n += child.Size()
	}
	return n
}

// Size is the number of bytes the chunk occupies on the wire, pad included.
func (c *Chunk) Size() int {
	n := c.Len()
	return headerSize + n + n&1
}

// Find returns the first direct child with the given identifier.
func (c *Chunk) Find(id ID) *Chunk {
	if c == nil {
		return nil
	}
	for _, child := range c.Children {
		if child != nil && child.ID == id {
			return child
		}
	}
	return nil
}

// FindAll returns every direct child with the given identifier, in order.
func (c *Chunk) FindAll(id ID) []*Chunk {
	if c == nil {
		return nil
	}
	var out []*Chunk
	for _, child := range c.Children {
		if child != nil && child.ID == id {
			out = append(out, child)
		}
	}
	return out
}

// ErrSkipChildren may be returned by a Walk callback to skip a composite's children.
var ErrSkipChildren = errors.New("iff: skip children")

// Walk visits c and its descendants depth-first in wire order.
func (c *Chunk) Walk(fn func(depth int, c *Chunk) error) error {
	return c.walk(0, fn)
}

func (c *Chunk) walk(depth int, fn func(int, *Chunk) error) error {
	if c == nil {
		return nil
	}
	if err := fn(depth, c); err != nil {
		if errors.Is(err, ErrSkipChildren) {
			return nil
		}
		return err
	}
	for _, child := range c.Children {
		if err := child.walk(depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// String renders the identifier, with the sub-identifier for composites ("FORM/IFRS").
func (c *Chunk) String() string {
	if c == nil {
		return "<nil>"
	}
	if c.composite {
		return c.ID.String() + "/" + c.SubID.String()
	}
	return c.ID.String()
}
