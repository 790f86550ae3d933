package iff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Serialize encodes c and its descendants. Length fields are recomputed from
// the actual payloads and odd payloads receive a zero pad byte.
func Serialize(c *Chunk) ([]byte, error) {
	if err := checkTree(c); err != nil {
		return nil, err
	}
	return c.appendTo(make([]byte, 0, c.Size())), nil
}

// AppendTo appends the serialized chunk to dst.
func (c *Chunk) AppendTo(dst []byte) ([]byte, error) {
	if err := checkTree(c); err != nil {
		return dst, err
	}
	return c.appendTo(dst), nil
}

func (c *Chunk) appendTo(dst []byte) []byte {
	n := c.Len()
	dst = append(dst, c.ID[:]...)
	dst = binary.BigEndian.AppendUint32(dst, uint32(n))
	if c.composite {
		dst = append(dst, c.SubID[:]...)
		for _, child := range c.Children {
			dst = child.appendTo(dst)
		}
	} else {
		dst = append(dst, c.payload...)
	}
	if n&1 == 1 {
		dst = append(dst, 0)
	}
	return dst
}

func checkTree(c *Chunk) error {
	if c == nil {
		return errors.New("iff: nil chunk")
	}
	return c.Walk(func(_ int, ch *Chunk) error {
		for i, child := range ch.Children {
			if child == nil {
				return fmt.Errorf("iff: %s has nil child at index %d", ch, i)
			}
		}
		if uint64(ch.Len()) > math.MaxUint32 {
			return fmt.Errorf("iff: %s payload of %d bytes does not fit a 32-bit length", ch, ch.Len())
		}
		return nil
	})
}
