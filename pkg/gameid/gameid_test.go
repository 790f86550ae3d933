package gameid

import (
	"bytes"
	"errors"
	"testing"

	"github.com/samcharles93/ififf/pkg/iff"
)

func testIdentity() Identity {
	return Identity{Release: 88, Serial: [6]byte{'8', '4', '0', '7', '2', '6'}, Checksum: 0x1234, PC: 0x4f05, HasPC: true}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	id := testIdentity()
	p, err := Encode(id)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0, 88, '8', '4', '0', '7', '2', '6', 0x12, 0x34, 0x00, 0x4f, 0x05}
	if !bytes.Equal(p, want) {
		t.Fatalf("payload: got %x want %x", p, want)
	}
	got, err := Decode(p)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != id {
		t.Fatalf("decode: got %+v want %+v", got, id)
	}
}

func TestDecodeLengths(t *testing.T) {
	t.Parallel()

	full, _ := Encode(testIdentity())

	if _, err := Decode(full[:9]); !errors.Is(err, iff.ErrFormat) {
		t.Fatalf("9 bytes: got %v want ErrFormat", err)
	}
	id, err := Decode(full[:10])
	if err != nil {
		t.Fatalf("10 bytes: %v", err)
	}
	if id.HasPC || id.PC != 0 || id.Release != 88 {
		t.Fatalf("10 bytes: got %+v", id)
	}
	id, err = Decode(append(full, 0, 0))
	if err != nil || id.PC != 0x4f05 {
		t.Fatalf("15 bytes: got %+v err=%v", id, err)
	}
}

func TestEncodeRejectsWidePC(t *testing.T) {
	t.Parallel()

	id := testIdentity()
	id.PC = MaxPC + 1
	if _, err := Encode(id); err == nil {
		t.Fatalf("expected error for PC above 24 bits")
	}
}

func TestMatchesIgnoresPC(t *testing.T) {
	t.Parallel()

	a := testIdentity()
	b := a
	b.PC = 0
	b.HasPC = false
	if !a.Matches(b) {
		t.Fatalf("identities differing only in PC should match")
	}
	b.Serial[5] = '7'
	if a.Matches(b) {
		t.Fatalf("serial difference should not match")
	}
}

func TestFromStoryHeader(t *testing.T) {
	t.Parallel()

	hdr := make([]byte, HeaderSize)
	hdr[0x02], hdr[0x03] = 0, 88
	hdr[0x06], hdr[0x07] = 0x4f, 0x05
	copy(hdr[0x12:], "840726")
	hdr[0x1C], hdr[0x1D] = 0x12, 0x34

	id, err := FromStoryHeader(hdr)
	if err != nil {
		t.Fatalf("from header: %v", err)
	}
	if id != testIdentity() {
		t.Fatalf("got %+v want %+v", id, testIdentity())
	}
	if _, err := FromStoryHeader(hdr[:63]); !errors.Is(err, iff.ErrFormat) {
		t.Fatalf("short header: got %v want ErrFormat", err)
	}
}

func TestModuleParse(t *testing.T) {
	t.Parallel()

	c, err := NewChunk(testIdentity())
	if err != nil {
		t.Fatalf("new chunk: %v", err)
	}
	buf, err := iff.Serialize(iff.NewForm(iff.MustID("TEST"), c))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	root, err := iff.Parse(buf, iff.NewRegistry(iff.Base(), Module()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, err := FromChunk(root.Find(ChunkID))
	if err != nil || id != testIdentity() {
		t.Fatalf("from chunk: got %+v err=%v", id, err)
	}
}
