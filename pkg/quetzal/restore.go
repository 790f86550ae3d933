package quetzal

import (
	"fmt"
	"slices"

	"github.com/samcharles93/ififf/pkg/gameid"
	"github.com/samcharles93/ififf/pkg/iff"
)

// parts are the children of a save FORM, sorted by role.
type parts struct {
	ifhd   *iff.Chunk
	memory *iff.Chunk
	stacks *iff.Chunk
	extra  []*iff.Chunk
}

func split(data []byte) (*iff.Chunk, parts, error) {
	root, err := iff.Parse(data, layout())
	if err != nil {
		return nil, parts{}, err
	}
	if root.ID != iff.IDForm || !root.IsComposite() || root.SubID != FormType {
		return nil, parts{}, fmt.Errorf("%w: file is %s, not FORM/IFZS", ErrIncompatible, root)
	}

	var p parts
	for _, c := range root.Children {
		switch c.ID {
		case IDIdentity:
			if p.ifhd != nil {
				return nil, parts{}, &iff.FormatError{ID: c.ID, Offset: c.Offset, Reason: "second game identity chunk"}
			}
			p.ifhd = c
		case IDCompressedMemory, IDUncompressedMemory:
			if p.memory != nil {
				return nil, parts{}, &iff.FormatError{ID: c.ID, Offset: c.Offset, Reason: "second memory chunk"}
			}
			p.memory = c
		case IDStacks:
			if p.stacks != nil {
				return nil, parts{}, &iff.FormatError{ID: c.ID, Offset: c.Offset, Reason: "second stack chunk"}
			}
			p.stacks = c
		default:
			p.extra = append(p.extra, c)
		}
	}
	return root, p, nil
}

func (p parts) decodeStacks() (Stacks, error) {
	stacks, err := decodeStacksChunk(p.stacks.Payload())
	if err != nil {
		return Stacks{}, &iff.FormatError{ID: p.stacks.ID, Offset: p.stacks.Offset, Reason: "decode payload", Err: err}
	}
	return stacks, nil
}

// decodeExtra attaches decoded values to the extra chunks Registry knows.
func (p parts) decodeExtra() error {
	reg := Registry()
	for _, c := range p.extra {
		if c.Value != nil || c.IsComposite() {
			continue
		}
		codec, ok := reg.Lookup(c.ID)
		if !ok || codec.Decode == nil {
			continue
		}
		v, err := codec.Decode(c.Payload())
		if err != nil {
			return &iff.FormatError{ID: c.ID, Offset: c.Offset, Reason: "decode payload", Err: err}
		}
		c.Value = v
	}
	return nil
}

// Restore reads a save file written for the game live identifies, using
// original (the story's dynamic memory as loaded) to rebuild memory.
//
// It fails with ErrIncompatible for a file that is not FORM/IFZS, lacks an
// IFhd chunk or names another game; with iff.ErrFormat for a missing,
// duplicated or malformed memory or stack chunk; and with ErrCompression when
// memory does not rebuild to len(original) bytes. Extra chunks in the result
// alias data.
func Restore(data []byte, live gameid.Identity, original []byte) (*State, error) {
	root, p, err := split(data)
	if err != nil {
		return nil, err
	}

	if p.ifhd == nil {
		return nil, fmt.Errorf("%w: no IFhd chunk", ErrIncompatible)
	}
	id, err := gameid.FromChunk(p.ifhd)
	if err != nil {
		return nil, err
	}
	if !id.Matches(live) {
		return nil, fmt.Errorf("%w: save is for %s, running %s", ErrIncompatible, id, live)
	}

	if p.memory == nil {
		return nil, &iff.FormatError{ID: root.ID, Offset: root.Offset, Reason: "no CMem or UMem chunk"}
	}
	if p.stacks == nil {
		return nil, &iff.FormatError{ID: root.ID, Offset: root.Offset, Reason: "no Stks chunk"}
	}

	stacks, err := p.decodeStacks()
	if err != nil {
		return nil, err
	}
	if err := p.decodeExtra(); err != nil {
		return nil, err
	}

	var mem []byte
	switch p.memory.ID {
	case IDCompressedMemory:
		if mem, err = Decompress(p.memory.Payload(), original); err != nil {
			return nil, err
		}
	case IDUncompressedMemory:
		raw := p.memory.Payload()
		if len(raw) != len(original) {
			return nil, fmt.Errorf("%w: UMem is %d bytes, dynamic memory is %d", ErrCompression, len(raw), len(original))
		}
		mem = slices.Clone(raw)
	}

	return &State{
		Identity:  id,
		Memory:    mem,
		CallStack: stacks.CallStack,
		Current:   stacks.Current,
		Extra:     p.extra,
	}, nil
}

// RestoreInto is Restore writing the rebuilt memory into mem, which must be
// len(original) bytes. mem is only written once the whole file has been
// validated; on error it is left untouched.
func RestoreInto(data []byte, live gameid.Identity, original, mem []byte) (*State, error) {
	if len(mem) != len(original) {
		return nil, fmt.Errorf("quetzal: destination is %d bytes, dynamic memory is %d", len(mem), len(original))
	}
	s, err := Restore(data, live, original)
	if err != nil {
		return nil, err
	}
	copy(mem, s.Memory)
	s.Memory = mem
	return s, nil
}

// Summary describes a save file without restoring it.
type Summary struct {
	Identity    gameid.Identity
	HasIdentity bool
	MemoryKind  string
	MemoryBytes int
	Frames      int
	Extra       []iff.ID
	Size        int
}

// Inspect reads the structure of a save file. It does not need the story
// file, so it cannot check that memory rebuilds, but a file missing its
// memory or stack chunk fails with iff.ErrFormat as Restore would.
func Inspect(data []byte) (*Summary, error) {
	root, p, err := split(data)
	if err != nil {
		return nil, err
	}
	s := &Summary{Size: root.Size()}
	if p.ifhd != nil {
		if s.Identity, err = gameid.FromChunk(p.ifhd); err != nil {
			return nil, err
		}
		s.HasIdentity = true
	}
	if p.memory == nil {
		return nil, &iff.FormatError{ID: root.ID, Offset: root.Offset, Reason: "no CMem or UMem chunk"}
	}
	s.MemoryKind = memoryKind(p.memory.ID)
	s.MemoryBytes = p.memory.Len()
	if p.stacks == nil {
		return nil, &iff.FormatError{ID: root.ID, Offset: root.Offset, Reason: "no Stks chunk"}
	}
	stacks, err := p.decodeStacks()
	if err != nil {
		return nil, err
	}
	s.Frames = len(stacks.CallStack) + 1
	for _, c := range p.extra {
		s.Extra = append(s.Extra, c.ID)
	}
	return s, nil
}
