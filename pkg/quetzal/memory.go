package quetzal

import "fmt"

// Compress encodes current as a difference against original.
//
// The two images are XORed, trailing zero bytes are dropped, and every run of
// zeros becomes a 0x00 byte followed by the run length minus one. Runs longer
// than 256 are split into 256-byte pieces.
func Compress(original, current []byte) ([]byte, error) {
	if len(original) != len(current) {
		return nil, fmt.Errorf("%w: original is %d bytes, current is %d", ErrCompression, len(original), len(current))
	}
	end := len(current)
	for end > 0 && original[end-1] == current[end-1] {
		end--
	}

	out := make([]byte, 0, end/2)
	run := 0
	for i := 0; i < end; i++ {
		d := original[i] ^ current[i]
		if d == 0 {
			run++
			if run == 256 {
				out = append(out, 0, 0xff)
				run = 0
			}
			continue
		}
		if run > 0 {
			out = append(out, 0, byte(run-1))
			run = 0
		}
		out = append(out, d)
	}
	return out, nil
}

// Decompress rebuilds the memory image Compress encoded against original.
// An expansion shorter than original is padded with unchanged bytes.
func Decompress(compressed, original []byte) ([]byte, error) {
	out := make([]byte, len(original))
	pos := 0
	for i := 0; i < len(compressed); i++ {
		b := compressed[i]
		if b != 0 {
			if pos >= len(out) {
				return nil, fmt.Errorf("%w: expands past %d bytes", ErrCompression, len(original))
			}
			out[pos] = b ^ original[pos]
			pos++
			continue
		}
		i++
		if i == len(compressed) {
			return nil, fmt.Errorf("%w: zero run marker at offset %d has no length", ErrCompression, i-1)
		}
		n := int(compressed[i]) + 1
		if pos+n > len(out) {
			return nil, fmt.Errorf("%w: expands past %d bytes", ErrCompression, len(original))
		}
		copy(out[pos:pos+n], original[pos:pos+n])
		pos += n
	}
	copy(out[pos:], original[pos:])
	return out, nil
}
