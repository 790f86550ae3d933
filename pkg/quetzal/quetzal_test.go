package quetzal

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/samcharles93/ififf/pkg/gameid"
	"github.com/samcharles93/ififf/pkg/iff"
)

func TestCompressCases(t *testing.T) {
	t.Parallel()

	sparseOrig := make([]byte, 300)
	sparseCur := make([]byte, 300)
	sparseCur[0] = 0x11
	sparseCur[299] = 0x22

	every := []byte{1, 2, 3, 4, 5}
	everyCur := []byte{2, 3, 4, 5, 6}

	tests := []struct {
		name     string
		orig     []byte
		cur      []byte
		wantComp []byte
	}{
		{"empty", []byte{}, []byte{}, []byte{}},
		{"no change", []byte{0, 0, 0, 0}, []byte{0, 0, 0, 0}, []byte{}},
		{"long zero run", sparseOrig, sparseCur, []byte{0x11, 0, 0xff, 0, 41, 0x22}},
		{"every byte", every, everyCur, []byte{3, 1, 7, 1, 3}},
		{"short run", []byte{9, 9, 9, 9}, []byte{8, 9, 9, 8}, []byte{1, 0, 1, 1}},
		{"trailing zeros stripped", []byte{1, 1, 1}, []byte{0, 1, 1}, []byte{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Compress(tt.orig, tt.cur)
			if err != nil {
				t.Fatalf("compress: %v", err)
			}
			if !bytes.Equal(got, tt.wantComp) {
				t.Fatalf("compressed: got %x want %x", got, tt.wantComp)
			}
			back, err := Decompress(got, tt.orig)
			if err != nil {
				t.Fatalf("decompress: %v", err)
			}
			if !bytes.Equal(back, tt.cur) {
				t.Fatalf("round trip: got %x want %x", back, tt.cur)
			}
		})
	}
}

func TestCompressExactRunBoundaries(t *testing.T) {
	t.Parallel()

	for _, gap := range []int{1, 255, 256, 257, 512, 513} {
		orig := make([]byte, gap+2)
		cur := make([]byte, gap+2)
		cur[0], cur[gap+1] = 1, 1
		comp, err := Compress(orig, cur)
		if err != nil {
			t.Fatalf("gap %d: %v", gap, err)
		}
		back, err := Decompress(comp, orig)
		if err != nil {
			t.Fatalf("gap %d decompress: %v", gap, err)
		}
		if !bytes.Equal(back, cur) {
			t.Fatalf("gap %d: round trip mismatch", gap)
		}
	}
}

func TestCompressRandomRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		n := rng.IntN(2000)
		orig := make([]byte, n)
		cur := make([]byte, n)
		for j := range orig {
			orig[j] = byte(rng.UintN(256))
			cur[j] = orig[j]
			if rng.IntN(10) == 0 {
				cur[j] = byte(rng.UintN(256))
			}
		}
		comp, err := Compress(orig, cur)
		if err != nil {
			t.Fatalf("compress: %v", err)
		}
		back, err := Decompress(comp, orig)
		if err != nil {
			t.Fatalf("decompress: %v", err)
		}
		if !bytes.Equal(back, cur) {
			t.Fatalf("iteration %d: round trip mismatch", i)
		}
	}
}

func TestCompressionErrors(t *testing.T) {
	t.Parallel()

	if _, err := Compress([]byte{1}, []byte{1, 2}); !errors.Is(err, ErrCompression) {
		t.Fatalf("length mismatch: got %v", err)
	}
	if _, err := Decompress([]byte{5, 0}, []byte{0, 0}); !errors.Is(err, ErrCompression) {
		t.Fatalf("dangling marker: got %v", err)
	}
	if _, err := Decompress([]byte{1, 2, 3}, []byte{0, 0}); !errors.Is(err, ErrCompression) {
		t.Fatalf("literal overflow: got %v", err)
	}
	if _, err := Decompress([]byte{0, 5}, []byte{0, 0}); !errors.Is(err, ErrCompression) {
		t.Fatalf("run overflow: got %v", err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()

	for n := 0; n <= MaxArgs; n++ {
		f := Frame{
			ReturnPC:      0x012345 + uint32(n),
			DiscardResult: n%2 == 1,
			ResultVar:     uint8(0x10 + n),
			ArgCount:      n,
			Locals:        make([]uint16, n+1),
			Stack:         []uint16{0xffff, uint16(n)},
		}
		for i := range f.Locals {
			f.Locals[i] = uint16(i * 0x101)
		}
		p, err := EncodeFrame(f)
		if err != nil {
			t.Fatalf("numargs %d: encode: %v", n, err)
		}
		if p[5] != byte(1<<n-1) {
			t.Fatalf("numargs %d: argument byte %#x", n, p[5])
		}
		got, size, err := DecodeFrame(p)
		if err != nil {
			t.Fatalf("numargs %d: decode: %v", n, err)
		}
		if size != len(p) {
			t.Fatalf("numargs %d: consumed %d of %d", n, size, len(p))
		}
		if !reflect.DeepEqual(got, f) {
			t.Fatalf("numargs %d: got %+v want %+v", n, got, f)
		}
	}
}

func TestFrameLayout(t *testing.T) {
	t.Parallel()

	p, err := EncodeFrame(Frame{ReturnPC: 0xabcdef, DiscardResult: true, ResultVar: 3, ArgCount: 2, Locals: []uint16{1, 2}, Stack: []uint16{0x0304}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0xab, 0xcd, 0xef, 0x12, 3, 0x03, 0, 1, 0, 1, 0, 2, 3, 4}
	if !bytes.Equal(p, want) {
		t.Fatalf("got %x want %x", p, want)
	}
}

func TestDecodeFrameRejectsMalformed(t *testing.T) {
	t.Parallel()

	good, _ := EncodeFrame(Frame{ArgCount: 1, Locals: []uint16{7}})
	for _, args := range []byte{0x02, 0x05, 0x0b, 0x80, 0xff} {
		p := bytes.Clone(good)
		p[5] = args
		if _, _, err := DecodeFrame(p); !errors.Is(err, ErrMalformedFrame) || !errors.Is(err, iff.ErrFormat) {
			t.Fatalf("argument byte %#08b: got %v", args, err)
		}
	}
	if _, _, err := DecodeFrame(good[:len(good)-1]); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("truncated frame: got %v", err)
	}
	if _, _, err := DecodeStacks(nil); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("empty stack: got %v", err)
	}
}

func TestDecodeFrameIgnoresReservedFlags(t *testing.T) {
	t.Parallel()

	want := Frame{ReturnPC: 0x1234, DiscardResult: true, ArgCount: 1, Locals: []uint16{7, 8}}
	p, err := EncodeFrame(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	p[3] |= 0xe0
	got, n, err := DecodeFrame(p)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(p) || got.ReturnPC != want.ReturnPC || !got.DiscardResult || got.ArgCount != 1 || !slices.Equal(got.Locals, want.Locals) {
		t.Fatalf("got %+v (%d bytes) want %+v", got, n, want)
	}
}

func TestEncodeFrameLimits(t *testing.T) {
	t.Parallel()

	bad := []Frame{
		{ReturnPC: MaxReturnPC + 1},
		{Locals: make([]uint16, MaxLocals+1)},
		{ArgCount: MaxArgs + 1},
		{ArgCount: -1},
		{Stack: make([]uint16, MaxStack+1)},
	}
	for i, f := range bad {
		if _, err := EncodeFrame(f); err == nil {
			t.Fatalf("frame %d accepted", i)
		}
	}
}

func TestStacksOrder(t *testing.T) {
	t.Parallel()

	call := []Frame{{ReturnPC: 1}, {ReturnPC: 2, Locals: []uint16{5}}}
	cur := Frame{ReturnPC: 3, Stack: []uint16{9}}
	p, err := EncodeStacks(call, cur)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	gotCall, gotCur, err := DecodeStacks(p)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(gotCall) != 2 || gotCall[0].ReturnPC != 1 || gotCall[1].ReturnPC != 2 {
		t.Fatalf("call stack: got %+v", gotCall)
	}
	if gotCur.ReturnPC != 3 || len(gotCur.Stack) != 1 {
		t.Fatalf("current: got %+v", gotCur)
	}
}

type fixture struct {
	id       gameid.Identity
	original []byte
	memory   []byte
	call     []Frame
	current  Frame
}

func newFixture() fixture {
	orig := make([]byte, 600)
	for i := range orig {
		orig[i] = byte(i * 7)
	}
	mem := bytes.Clone(orig)
	mem[10] ^= 0xff
	mem[400] = 0
	mem[599] = 1
	return fixture{
		id:       gameid.Identity{Release: 2, Serial: [6]byte{'0', '6', '0', '1', '0', '1'}, Checksum: 0x4242, PC: 0x1a2b3, HasPC: true},
		original: orig,
		memory:   mem,
		call:     []Frame{{ReturnPC: 0, Locals: nil}, {ReturnPC: 0x4000, ResultVar: 0x10, ArgCount: 1, Locals: []uint16{3, 0}}},
		current:  Frame{ReturnPC: 0x4100, DiscardResult: true, Locals: []uint16{1}, Stack: []uint16{7, 8}},
	}
}

func TestSaveRestore(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	data, err := Save(fx.id, fx.original, fx.memory, fx.call, fx.current)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	st, err := Restore(data, fx.id, fx.original)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !bytes.Equal(st.Memory, fx.memory) {
		t.Fatalf("memory mismatch")
	}
	if st.Identity.PC != fx.id.PC {
		t.Fatalf("PC: got %#x want %#x", st.Identity.PC, fx.id.PC)
	}
	if len(st.CallStack) != 2 || st.CallStack[1].ArgCount != 1 || st.CallStack[1].Locals[0] != 3 {
		t.Fatalf("call stack: got %+v", st.CallStack)
	}
	if !reflect.DeepEqual(st.Current, fx.current) {
		t.Fatalf("current: got %+v want %+v", st.Current, fx.current)
	}
	if len(st.Extra) != 0 {
		t.Fatalf("extra: got %d chunks", len(st.Extra))
	}
}

func TestRestoreUncompressedWithExtras(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	intd, err := NewInterpreterData(InterpreterData{
		OS:          iff.MustID("UNIX"),
		DoNotCopy:   true,
		ContentsID:  4,
		Interpreter: iff.MustID("IFIF"),
		Data:        []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("intd: %v", err)
	}
	anno := iff.NewChunk(iff.IDAnnotation, []byte("saved in the cellar"))

	data, err := Encode(&State{
		Identity:  fx.id,
		Memory:    fx.memory,
		CallStack: fx.call,
		Current:   fx.current,
		Extra:     []*iff.Chunk{intd, anno},
	}, nil, EncodeOptions{Uncompressed: true})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	st, err := Restore(data, fx.id, fx.original)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !bytes.Equal(st.Memory, fx.memory) {
		t.Fatalf("memory mismatch")
	}
	if len(st.Extra) != 2 || st.Extra[0].ID != IDInterpreterData || st.Extra[1].ID != iff.IDAnnotation {
		t.Fatalf("extra chunks: got %v", st.Extra)
	}
	d, ok := iff.ValueAs[InterpreterData](st.Extra[0])
	if !ok || !d.DoNotCopy || d.MachineSpecific || d.ContentsID != 4 || !bytes.Equal(d.Data, []byte{1, 2, 3}) {
		t.Fatalf("IntD: got %+v ok=%v", d, ok)
	}
	if !bytes.Equal(st.Extra[1].Payload(), []byte("saved in the cellar")) {
		t.Fatalf("ANNO payload changed")
	}

	if _, err := Restore(data, fx.id, fx.original[:599]); !errors.Is(err, ErrCompression) {
		t.Fatalf("UMem length mismatch: got %v", err)
	}

	sum, err := Inspect(data)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if sum.MemoryKind != "uncompressed" || sum.MemoryBytes != len(fx.memory) || sum.Frames != 3 || len(sum.Extra) != 2 {
		t.Fatalf("summary: got %+v", sum)
	}
}

func TestRestoreIntoLeavesDestinationOnFailure(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	data, err := Save(fx.id, fx.original, fx.memory, fx.call, fx.current)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	other := fx.id
	other.Serial[5] = '9'

	dst := bytes.Repeat([]byte{0xaa}, len(fx.original))
	st, err := RestoreInto(data, other, fx.original, dst)
	if !errors.Is(err, ErrIncompatible) {
		t.Fatalf("serial mismatch: got %v", err)
	}
	if st != nil {
		t.Fatalf("state returned on failure")
	}
	if !bytes.Equal(dst, bytes.Repeat([]byte{0xaa}, len(fx.original))) {
		t.Fatalf("destination modified on failure")
	}

	st, err = RestoreInto(data, fx.id, fx.original, dst)
	if err != nil {
		t.Fatalf("restore into: %v", err)
	}
	if !bytes.Equal(dst, fx.memory) || &st.Memory[0] != &dst[0] {
		t.Fatalf("destination not filled")
	}
}

func TestRestoreErrors(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	ifhd, _ := gameid.NewChunk(fx.id)
	diff, _ := Compress(fx.original, fx.memory)
	cmem := iff.NewChunk(IDCompressedMemory, diff)
	umem := iff.NewChunk(IDUncompressedMemory, fx.memory)
	stksPayload, _ := EncodeStacks(fx.call, fx.current)
	stks := iff.NewChunk(IDStacks, stksPayload)
	badStks := iff.NewChunk(IDStacks, []byte{0, 0, 0, 0, 0, 2, 0, 0})
	other := fx.id
	other.Serial[5]++
	otherIfhd, _ := gameid.NewChunk(other)

	serialize := func(c *iff.Chunk) []byte {
		b, err := iff.Serialize(c)
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not a form", serialize(iff.NewChunk(iff.MustID("JUNK"), []byte{1})), ErrIncompatible},
		{"wrong sub-id", serialize(iff.NewForm(iff.MustID("IFRS"), ifhd, cmem, stks)), ErrIncompatible},
		{"no identity", serialize(iff.NewForm(FormType, cmem, stks)), ErrIncompatible},
		{"no memory", serialize(iff.NewForm(FormType, ifhd, stks)), iff.ErrFormat},
		{"no stack", serialize(iff.NewForm(FormType, ifhd, cmem)), iff.ErrFormat},
		{"two memories", serialize(iff.NewForm(FormType, ifhd, cmem, umem, stks)), iff.ErrFormat},
		{"two stacks", serialize(iff.NewForm(FormType, ifhd, cmem, stks, stks)), iff.ErrFormat},
		{"empty stack", serialize(iff.NewForm(FormType, ifhd, cmem, iff.NewChunk(IDStacks, nil))), iff.ErrFormat},
		{"bad frame", serialize(iff.NewForm(FormType, ifhd, cmem, badStks)), ErrMalformedFrame},
		{"other game with bad frame", serialize(iff.NewForm(FormType, otherIfhd, cmem, badStks)), ErrIncompatible},
		{"bad interpreter data", serialize(iff.NewForm(FormType, ifhd, cmem, stks, iff.NewChunk(IDInterpreterData, []byte{1}))), iff.ErrFormat},
		{"bad compression", serialize(iff.NewForm(FormType, ifhd, iff.NewChunk(IDCompressedMemory, []byte{1, 0}), stks)), ErrCompression},
		{"truncated", serialize(iff.NewForm(FormType, ifhd, cmem, stks))[:40], iff.ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st, err := Restore(tt.data, fx.id, fx.original)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v want %v", err, tt.want)
			}
			if st != nil {
				t.Fatalf("state returned on failure")
			}
		})
	}
}

func TestInspectRequiresMemoryAndStack(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	ifhd, _ := gameid.NewChunk(fx.id)
	diff, _ := Compress(fx.original, fx.memory)
	cmem := iff.NewChunk(IDCompressedMemory, diff)
	stksPayload, _ := EncodeStacks(fx.call, fx.current)
	stks := iff.NewChunk(IDStacks, stksPayload)

	tests := []struct {
		name string
		form *iff.Chunk
	}{
		{"empty form", iff.NewForm(FormType)},
		{"no memory", iff.NewForm(FormType, ifhd, stks)},
		{"no stack", iff.NewForm(FormType, ifhd, cmem)},
		{"bad frame", iff.NewForm(FormType, ifhd, cmem, iff.NewChunk(IDStacks, []byte{0, 0, 0, 0, 0, 2, 0, 0}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := iff.Serialize(tt.form)
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			if sum, err := Inspect(data); !errors.Is(err, iff.ErrFormat) || sum != nil {
				t.Fatalf("got %+v, %v want %v", sum, err, iff.ErrFormat)
			}
		})
	}

	data, err := iff.Serialize(iff.NewForm(FormType, cmem, stks))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	sum, err := Inspect(data)
	if err != nil || sum.HasIdentity || sum.MemoryKind != "compressed" {
		t.Fatalf("save without identity: got %+v, %v", sum, err)
	}
}

func TestEncodeRejectsReservedExtra(t *testing.T) {
	t.Parallel()

	fx := newFixture()
	_, err := Encode(&State{
		Identity: fx.id,
		Memory:   fx.memory,
		Current:  fx.current,
		Extra:    []*iff.Chunk{iff.NewChunk(IDStacks, nil)},
	}, fx.original, EncodeOptions{})
	if err == nil {
		t.Fatalf("reserved extra chunk accepted")
	}
}
