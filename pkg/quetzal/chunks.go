package quetzal

import (
	"fmt"

	"github.com/samcharles93/ififf/pkg/iff"
)

// InterpreterData is the decoded IntD chunk, a blob private to one
// interpreter on one platform.
type InterpreterData struct {
	OS              iff.ID
	DoNotCopy       bool
	MachineSpecific bool
	ContentsID      uint8
	Interpreter     iff.ID
	Data            []byte
}

const (
	intDHeaderSize  = 12
	intDDoNotCopy   = 0x01
	intDMachineSpec = 0x02
)

func decodeInterpreterData(p []byte) (InterpreterData, error) {
	if len(p) < intDHeaderSize {
		return InterpreterData{}, iff.Errorf("IntD payload is %d bytes, need %d", len(p), intDHeaderSize)
	}
	d := InterpreterData{
		DoNotCopy:       p[4]&intDDoNotCopy != 0,
		MachineSpecific: p[4]&intDMachineSpec != 0,
		ContentsID:      p[5],
		Data:            p[intDHeaderSize:],
	}
	copy(d.OS[:], p[0:4])
	copy(d.Interpreter[:], p[8:12])
	return d, nil
}

func encodeInterpreterData(d InterpreterData) ([]byte, error) {
	var flags byte
	if d.DoNotCopy {
		flags |= intDDoNotCopy
	}
	if d.MachineSpecific {
		flags |= intDMachineSpec
	}
	p := make([]byte, 0, intDHeaderSize+len(d.Data))
	p = append(p, d.OS[:]...)
	p = append(p, flags, d.ContentsID, 0, 0)
	p = append(p, d.Interpreter[:]...)
	return append(p, d.Data...), nil
}

// NewInterpreterData builds an IntD chunk.
func NewInterpreterData(d InterpreterData) (*iff.Chunk, error) {
	return Registry().NewChunk(IDInterpreterData, d)
}

// reserved reports identifiers Encode writes itself and which may not be
// passed through as extra chunks.
func reserved(id iff.ID) bool {
	switch id {
	case IDIdentity, IDCompressedMemory, IDUncompressedMemory, IDStacks:
		return true
	}
	return false
}

// Module registers Stks and IntD. CMem and UMem stay opaque because their
// meaning depends on the original memory image, which the parser does not
// have.
func Module() iff.Module {
	return iff.Module{
		Name: "quetzal",
		Codecs: map[iff.ID]iff.Codec{
			IDStacks:          iff.TypedCodec(decodeStacksChunk, encodeStacksChunk),
			IDInterpreterData: iff.TypedCodec(decodeInterpreterData, encodeInterpreterData),
		},
	}
}

func memoryKind(id iff.ID) string {
	switch id {
	case IDCompressedMemory:
		return "compressed"
	case IDUncompressedMemory:
		return "uncompressed"
	}
	return fmt.Sprintf("unknown (%s)", id)
}
