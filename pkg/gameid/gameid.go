// Package gameid describes the identity of a story file: the release number,
// serial and checksum that resource bundles and save states record so they can
// be matched against a game image later.
package gameid

import (
	"encoding/binary"
	"fmt"

	"github.com/samcharles93/ififf/pkg/iff"
)

// ChunkID is the identifier of the game-identity chunk.
var ChunkID = iff.ID{'I', 'F', 'h', 'd'}

const (
	// HeaderSize is the length of a Z-code story header.
	HeaderSize = 64

	// MaxPC is the largest program counter the 24-bit PC field can hold.
	MaxPC = 0xFFFFFF

	payloadNoPC = 10
	payloadPC   = 13

	offRelease  = 0x02
	offInitPC   = 0x06
	offSerial   = 0x12
	offChecksum = 0x1C
)

// Identity is the release/serial/checksum triple of a story file, with the
// optional 24-bit initial program counter.
type Identity struct {
	Release  uint16
	Serial   [6]byte
	Checksum uint16
	PC       uint32
	HasPC    bool
}

// Matches reports whether both identities name the same game build. The PC is
// not part of the comparison.
func (id Identity) Matches(other Identity) bool {
	return id.Release == other.Release && id.Serial == other.Serial && id.Checksum == other.Checksum
}

func (id Identity) SerialString() string {
	return string(id.Serial[:])
}

func (id Identity) String() string {
	return fmt.Sprintf("release %d serial %s checksum %#04x", id.Release, id.SerialString(), id.Checksum)
}

// ParseSerial copies a 6-character serial (conventionally YYMMDD) into the fixed field.
func ParseSerial(s string) ([6]byte, error) {
	var out [6]byte
	if len(s) != len(out) {
		return out, fmt.Errorf("gameid: serial %q must be exactly 6 bytes", s)
	}
	copy(out[:], s)
	return out, nil
}

// Decode reads an IFhd payload. Ten to twelve bytes carry no PC; thirteen or
// more carry one and any excess is ignored.
func Decode(p []byte) (Identity, error) {
	if len(p) < payloadNoPC {
		return Identity{}, iff.Errorf("IFhd payload is %d bytes, need at least %d", len(p), payloadNoPC)
	}
	var id Identity
	id.Release = binary.BigEndian.Uint16(p[0:2])
	copy(id.Serial[:], p[2:8])
	id.Checksum = binary.BigEndian.Uint16(p[8:10])
	if len(p) >= payloadPC {
		id.PC = uint32(p[10])<<16 | uint32(p[11])<<8 | uint32(p[12])
		id.HasPC = true
	}
	return id, nil
}

// Encode writes the 13-byte IFhd payload. A missing PC is written as zero.
func Encode(id Identity) ([]byte, error) {
	if id.PC > MaxPC {
		return nil, fmt.Errorf("gameid: PC %#x does not fit 24 bits", id.PC)
	}
	p := make([]byte, 0, payloadPC)
	p = binary.BigEndian.AppendUint16(p, id.Release)
	p = append(p, id.Serial[:]...)
	p = binary.BigEndian.AppendUint16(p, id.Checksum)
	p = append(p, byte(id.PC>>16), byte(id.PC>>8), byte(id.PC))
	return p, nil
}

// FromStoryHeader extracts the identity from the first 64 bytes of a story
// file. The initial PC is taken from the header's 16-bit start address.
func FromStoryHeader(hdr []byte) (Identity, error) {
	if len(hdr) < HeaderSize {
		return Identity{}, iff.Errorf("story header is %d bytes, need %d", len(hdr), HeaderSize)
	}
	var id Identity
	id.Release = binary.BigEndian.Uint16(hdr[offRelease:])
	copy(id.Serial[:], hdr[offSerial:offSerial+6])
	id.Checksum = binary.BigEndian.Uint16(hdr[offChecksum:])
	id.PC = uint32(binary.BigEndian.Uint16(hdr[offInitPC:]))
	id.HasPC = true
	return id, nil
}

// NewChunk builds an IFhd chunk for id.
func NewChunk(id Identity) (*iff.Chunk, error) {
	p, err := Encode(id)
	if err != nil {
		return nil, err
	}
	c := iff.NewChunk(ChunkID, p)
	id.HasPC = true
	c.Value = id
	return c, nil
}

// FromChunk returns the identity carried by an IFhd chunk, decoding the payload
// when the chunk was parsed without a registry that knows IFhd.
func FromChunk(c *iff.Chunk) (Identity, error) {
	if c == nil || c.ID != ChunkID {
		return Identity{}, iff.Errorf("not an IFhd chunk")
	}
	if id, ok := iff.ValueAs[Identity](c); ok {
		return id, nil
	}
	return Decode(c.Payload())
}

// Module registers the IFhd codec.
func Module() iff.Module {
	return iff.Module{
		Name:   "gameid",
		Codecs: map[iff.ID]iff.Codec{ChunkID: iff.TypedCodec(Decode, Encode)},
	}
}
