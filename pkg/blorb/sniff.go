package blorb

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/samcharles93/ififf/pkg/iff"
)

// SniffChunk wraps raw file contents in the chunk Blorb uses for them,
// recognising the format from its leading bytes. AIFF files are already IFF
// and are parsed as a nested FORM.
func SniffChunk(usage Usage, data []byte) (*iff.Chunk, error) {
	id, err := sniffID(usage, data)
	if err != nil {
		return nil, err
	}
	if id == iff.IDForm {
		c, err := iff.Parse(data, Registry())
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return iff.NewChunk(id, data), nil
}

func sniffID(usage Usage, data []byte) (iff.ID, error) {
	switch usage {
	case UsagePicture:
		switch {
		case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
			return iff.MustID("PNG "), nil
		case bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}):
			return iff.MustID("JPEG"), nil
		case bytes.HasPrefix(data, []byte("GIF8")):
			return iff.MustID("GIF "), nil
		}
	case UsageSound:
		switch {
		case len(data) >= 12 && bytes.Equal(data[0:4], []byte("FORM")) && bytes.Equal(data[8:12], IDAIFF[:]):
			return iff.IDForm, nil
		case bytes.HasPrefix(data, []byte("OggS")):
			return iff.MustID("OGGV"), nil
		case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
			return iff.MustID("WAV "), nil
		case bytes.HasPrefix(data, []byte("MThd")):
			return iff.MustID("MIDI"), nil
		case bytes.HasPrefix(data, []byte("ID3")), len(data) >= 2 && data[0] == 0xff && data[1]&0xe0 == 0xe0:
			return iff.MustID("MP3 "), nil
		case len(data) >= 1084 && isModSignature(data[1080:1084]):
			return iff.MustID("MOD "), nil
		}
	case UsageExecutable:
		switch {
		case bytes.HasPrefix(data, []byte("Glul")):
			return iff.MustID("GLUL"), nil
		case bytes.HasPrefix(data, []byte("TADS2 bin")):
			return iff.MustID("TAD2"), nil
		case bytes.HasPrefix(data, []byte("T3-image")):
			return iff.MustID("TAD3"), nil
		case len(data) >= 64 && data[0] >= 1 && data[0] <= 8:
			return iff.MustID("ZCOD"), nil
		}
		return iff.MustID("EXEC"), nil
	case UsageData:
		if utf8.Valid(data) {
			return iff.MustID("TEXT"), nil
		}
		return iff.MustID("BINA"), nil
	}
	return iff.ID{}, fmt.Errorf("blorb: unrecognised %q resource", string(usage))
}

func isModSignature(sig []byte) bool {
	switch string(sig) {
	case "M.K.", "M!K!", "FLT4", "FLT8", "4CHN", "6CHN", "8CHN":
		return true
	}
	return false
}
