package quetzal

import (
	"fmt"

	"github.com/samcharles93/ififf/pkg/gameid"
	"github.com/samcharles93/ififf/pkg/iff"
)

// State is everything a save file restores.
type State struct {
	Identity  gameid.Identity
	Memory    []byte
	CallStack []Frame
	Current   Frame

	// Extra holds chunks such as IntD or ANNO that are carried through
	// unchanged, in file order.
	Extra []*iff.Chunk
}

// EncodeOptions controls how Encode writes memory.
type EncodeOptions struct {
	// Uncompressed writes the memory image raw as UMem instead of a CMem
	// difference against the original image.
	Uncompressed bool
}

// Save writes a save file with compressed memory. id.PC is stored as the
// program counter to resume at.
func Save(id gameid.Identity, original, memory []byte, callStack []Frame, current Frame) ([]byte, error) {
	return Encode(&State{Identity: id, Memory: memory, CallStack: callStack, Current: current}, original, EncodeOptions{})
}

// Encode writes s as a save file. original is only read when memory is
// compressed.
func Encode(s *State, original []byte, opts EncodeOptions) ([]byte, error) {
	form, err := Form(s, original, opts)
	if err != nil {
		return nil, err
	}
	return iff.Serialize(form)
}

// Form builds the FORM/IFZS chunk tree for s.
func Form(s *State, original []byte, opts EncodeOptions) (*iff.Chunk, error) {
	if s == nil {
		return nil, fmt.Errorf("quetzal: nil state")
	}
	ifhd, err := gameid.NewChunk(s.Identity)
	if err != nil {
		return nil, err
	}

	var mem *iff.Chunk
	if opts.Uncompressed {
		mem = iff.NewChunk(IDUncompressedMemory, s.Memory)
	} else {
		diff, err := Compress(original, s.Memory)
		if err != nil {
			return nil, err
		}
		mem = iff.NewChunk(IDCompressedMemory, diff)
	}

	stks, err := EncodeStacks(s.CallStack, s.Current)
	if err != nil {
		return nil, err
	}
	stksChunk := iff.NewChunk(IDStacks, stks)
	stksChunk.Value = Stacks{CallStack: s.CallStack, Current: s.Current}

	children := []*iff.Chunk{ifhd, mem, stksChunk}
	for i, c := range s.Extra {
		if c == nil {
			return nil, fmt.Errorf("quetzal: extra chunk %d is nil", i)
		}
		if reserved(c.ID) {
			return nil, fmt.Errorf("quetzal: extra chunk %d is a %s chunk, which the encoder writes itself", i, c.ID)
		}
		children = append(children, c)
	}
	return iff.NewForm(FormType, children...), nil
}
