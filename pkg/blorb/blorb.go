// Package blorb resolves Blorb resource bundles: an IFF FORM of type IFRS
// packaging a game executable with its pictures, sounds and metadata.
//
// A Bundle is built once from a parsed chunk tree. Lookups report absence
// with a boolean rather than an error; structural problems are reported by
// Open and New as errors matching iff.ErrFormat.
package blorb

import (
	"errors"
	"sync"

	"github.com/samcharles93/ififf/pkg/gameid"
	"github.com/samcharles93/ififf/pkg/iff"
)

// ErrGameMismatch is returned by CheckGame when the story file is not the one
// the bundle was built for.
var ErrGameMismatch = errors.New("blorb: bundle does not match game")

// Chunk identifiers.
var (
	FormType = iff.ID{'I', 'F', 'R', 'S'}

	IDResourceIndex   = iff.ID{'R', 'I', 'd', 'x'}
	IDResolution      = iff.ID{'R', 'e', 's', 'o'}
	IDAdaptivePalette = iff.ID{'A', 'P', 'a', 'l'}
	IDFrontispiece    = iff.ID{'F', 's', 'p', 'c'}
	IDMetadata        = iff.ID{'I', 'F', 'm', 'd'}
	IDStoryName       = iff.ID{'S', 'N', 'a', 'm'}
	IDLoop            = iff.ID{'L', 'o', 'o', 'p'}
	IDReleaseNumber   = iff.ID{'R', 'e', 'l', 'N'}
	IDPalette         = iff.ID{'P', 'l', 't', 'e'}
	IDRect            = iff.ID{'R', 'e', 'c', 't'}
	IDDescriptions    = iff.ID{'R', 'D', 'e', 's'}
	IDIdentity        = gameid.ChunkID

	IDAIFF = iff.ID{'A', 'I', 'F', 'F'}
)

// Usage is the resource class of an index entry.
type Usage string

const (
	UsagePicture    Usage = "Pict"
	UsageSound      Usage = "Snd "
	UsageExecutable Usage = "Exec"
	UsageData       Usage = "Data"
)

func (u Usage) valid() bool {
	return len(u) == 4
}

// Format is the encoding of a resource, taken from the identifier of the
// chunk that wraps it with trailing spaces removed ("PNG", "OGGV", "ZCOD").
// Sounds stored as a FORM of type AIFF report FormatAIFF.
type Format string

const (
	FormatPNG   Format = "PNG"
	FormatJPEG  Format = "JPEG"
	FormatGIF   Format = "GIF"
	FormatRect  Format = "Rect"
	FormatAIFF  Format = "AIFF"
	FormatOgg   Format = "OGGV"
	FormatMOD   Format = "MOD"
	FormatSong  Format = "SONG"
	FormatWAV   Format = "WAV"
	FormatMIDI  Format = "MIDI"
	FormatMP3   Format = "MP3"
	FormatZCode Format = "ZCOD"
	FormatGlulx Format = "GLUL"
	FormatTADS2 Format = "TAD2"
	FormatTADS3 Format = "TAD3"
	FormatHugo  Format = "HUGO"
	FormatAlan  Format = "ALAN"
	FormatAdri  Format = "ADRI"
	FormatLevel Format = "LEVE"
	FormatAGT   Format = "AGT"
	FormatMagS  Format = "MAGS"
	FormatAdvSy Format = "ADVS"
	FormatExec  Format = "EXEC"
	FormatText  Format = "TEXT"
	FormatBin   Format = "BINA"
)

func formatOf(c *iff.Chunk) Format {
	if c.IsComposite() {
		return Format(c.SubID.Trimmed())
	}
	return Format(c.ID.Trimmed())
}

// SoundClass separates short effects from background music.
type SoundClass int

const (
	SoundEffect SoundClass = iota
	SoundMusic
)

func (s SoundClass) String() string {
	switch s {
	case SoundEffect:
		return "effect"
	case SoundMusic:
		return "music"
	default:
		return "unknown"
	}
}

// Resource is one resolved index entry.
type Resource struct {
	Usage  Usage
	Number uint32
	Offset uint32
	Format Format
	Chunk  *iff.Chunk

	// Repeats comes from the Loop chunk; zero means loop forever.
	Repeats    uint32
	HasRepeats bool

	// Scale is the Reso entry for a picture, nil when the picture has none.
	Scale *ScaleEntry

	data []byte
}

// Data returns the resource bytes: the chunk payload, or the whole serialized
// chunk for composite resources such as AIFF sounds.
func (r Resource) Data() []byte {
	return r.data
}

var registry = sync.OnceValue(func() *iff.Registry {
	return iff.NewRegistry(iff.Base(), gameid.Module(), Module())
})

// Registry is the chunk registry used to parse bundles. The returned value is
// shared and must be treated as read-only.
func Registry() *iff.Registry {
	return registry()
}

// NewChunk encodes v as a chunk of the given Blorb, IFhd or text identifier.
func NewChunk(id iff.ID, v any) (*iff.Chunk, error) {
	return Registry().NewChunk(id, v)
}
