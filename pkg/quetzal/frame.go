package quetzal

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

const (
	MaxReturnPC = 0xFFFFFF
	MaxLocals   = 15
	MaxArgs     = 7
	MaxStack    = 0xFFFF

	frameHeaderSize = 8
	flagDiscard     = 0x10
)

// Frame is one routine call on the interpreter's stack.
type Frame struct {
	ReturnPC      uint32
	DiscardResult bool
	ResultVar     uint8
	// ArgCount is the number of arguments the caller supplied.
	ArgCount int
	Locals   []uint16
	Stack    []uint16
}

func (f Frame) check() error {
	switch {
	case f.ReturnPC > MaxReturnPC:
		return fmt.Errorf("quetzal: return PC %#x does not fit 24 bits", f.ReturnPC)
	case len(f.Locals) > MaxLocals:
		return fmt.Errorf("quetzal: %d locals, at most %d allowed", len(f.Locals), MaxLocals)
	case f.ArgCount < 0 || f.ArgCount > MaxArgs:
		return fmt.Errorf("quetzal: argument count %d outside 0..%d", f.ArgCount, MaxArgs)
	case len(f.Stack) > MaxStack:
		return fmt.Errorf("quetzal: evaluation stack of %d words, at most %d allowed", len(f.Stack), MaxStack)
	}
	return nil
}

// AppendFrame appends the encoded frame to dst.
//
// Layout: return PC (3 bytes), flags (local count | 0x10 when the result is
// discarded), result variable, argument mask ((1<<n)-1), stack size (2 bytes),
// then the locals and the evaluation stack as big-endian words.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	if err := f.check(); err != nil {
		return dst, err
	}
	flags := byte(len(f.Locals))
	if f.DiscardResult {
		flags |= flagDiscard
	}
	dst = append(dst, byte(f.ReturnPC>>16), byte(f.ReturnPC>>8), byte(f.ReturnPC))
	dst = append(dst, flags, f.ResultVar, byte(1<<f.ArgCount-1))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(f.Stack)))
	for _, v := range f.Locals {
		dst = binary.BigEndian.AppendUint16(dst, v)
	}
	for _, v := range f.Stack {
		dst = binary.BigEndian.AppendUint16(dst, v)
	}
	return dst, nil
}

func EncodeFrame(f Frame) ([]byte, error) {
	return AppendFrame(nil, f)
}

// DecodeFrame reads one frame from the start of p and returns it with the
// number of bytes consumed.
func DecodeFrame(p []byte) (Frame, int, error) {
	if len(p) < frameHeaderSize {
		return Frame{}, 0, fmt.Errorf("%w: header needs %d bytes, have %d", ErrMalformedFrame, frameHeaderSize, len(p))
	}
	// Bits 5 to 7 of the flags byte are reserved and ignored.
	flags := p[3]
	args := p[5]
	if args&(args+1) != 0 {
		return Frame{}, 0, fmt.Errorf("%w: argument mask %#08b is not a run of low bits", ErrMalformedFrame, args)
	}
	if args == 0xff {
		return Frame{}, 0, fmt.Errorf("%w: eight arguments, at most %d allowed", ErrMalformedFrame, MaxArgs)
	}

	f := Frame{
		ReturnPC:      uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2]),
		DiscardResult: flags&flagDiscard != 0,
		ResultVar:     p[4],
		ArgCount:      bits.OnesCount8(args),
	}
	nLocals := int(flags & 0x0f)
	nStack := int(binary.BigEndian.Uint16(p[6:8]))
	size := frameHeaderSize + 2*(nLocals+nStack)
	if len(p) < size {
		return Frame{}, 0, fmt.Errorf("%w: frame needs %d bytes, have %d", ErrMalformedFrame, size, len(p))
	}

	words := p[frameHeaderSize:size]
	if nLocals > 0 {
		f.Locals = make([]uint16, nLocals)
		for i := range f.Locals {
			f.Locals[i] = binary.BigEndian.Uint16(words[2*i:])
		}
	}
	if nStack > 0 {
		f.Stack = make([]uint16, nStack)
		for i := range f.Stack {
			f.Stack[i] = binary.BigEndian.Uint16(words[2*(nLocals+i):])
		}
	}
	return f, size, nil
}

// Stacks is the decoded Stks chunk. The current frame is written last.
type Stacks struct {
	CallStack []Frame
	Current   Frame
}

// EncodeStacks writes the call stack, oldest frame first, followed by current.
func EncodeStacks(callStack []Frame, current Frame) ([]byte, error) {
	var out []byte
	var err error
	for i, f := range callStack {
		if out, err = AppendFrame(out, f); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	if out, err = AppendFrame(out, current); err != nil {
		return nil, fmt.Errorf("current frame: %w", err)
	}
	return out, nil
}

// DecodeStacks splits a Stks payload into frames. The last frame is the
// current one; an empty payload is an error.
func DecodeStacks(p []byte) ([]Frame, Frame, error) {
	var frames []Frame
	for off := 0; off < len(p); {
		f, n, err := DecodeFrame(p[off:])
		if err != nil {
			return nil, Frame{}, fmt.Errorf("frame %d at offset %d: %w", len(frames), off, err)
		}
		frames = append(frames, f)
		off += n
	}
	if len(frames) == 0 {
		return nil, Frame{}, fmt.Errorf("%w: stack holds no frames", ErrMalformedFrame)
	}
	return frames[:len(frames)-1 : len(frames)-1], frames[len(frames)-1], nil
}

func decodeStacksChunk(p []byte) (Stacks, error) {
	cs, cur, err := DecodeStacks(p)
	if err != nil {
		return Stacks{}, err
	}
	return Stacks{CallStack: cs, Current: cur}, nil
}

func encodeStacksChunk(s Stacks) ([]byte, error) {
	return EncodeStacks(s.CallStack, s.Current)
}
