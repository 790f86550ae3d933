package blorb

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samcharles93/ififf/pkg/gameid"
	"github.com/samcharles93/ififf/pkg/iff"
)

type resKey struct {
	usage  Usage
	number uint32
}

// Bundle is a resolved resource bundle. Apart from the adaptive palette
// state it is read-only and may be shared between goroutines; AdaptPalette
// needs external synchronisation.
type Bundle struct {
	form      *iff.Chunk
	resources map[resKey]*Resource

	identity    gameid.Identity
	hasIdentity bool

	resolution    Resolution
	hasResolution bool
	scales        map[uint32]ScaleEntry

	adaptive map[uint32]struct{}

	frontispiece    uint32
	hasFrontispiece bool

	metadata    string
	hasMetadata bool

	storyName    string
	hasStoryName bool

	release    uint16
	hasRelease bool

	colorPalette    ColorPalette
	hasColorPalette bool

	descriptions map[resKey]string

	palette [paletteSize]Color
}

// Open parses buf as a bundle.
func Open(buf []byte) (*Bundle, error) {
	form, err := iff.Parse(buf, Registry())
	if err != nil {
		return nil, err
	}
	return New(form)
}

// New resolves a chunk tree whose root is a FORM of type IFRS. Index offsets
// are absolute file positions and are matched against the serialized layout
// of the form's children.
func New(form *iff.Chunk) (*Bundle, error) {
	if form == nil {
		return nil, iff.Errorf("nil bundle form")
	}
	if form.ID != iff.IDForm || !form.IsComposite() || form.SubID != FormType {
		return nil, &iff.FormatError{ID: form.ID, Offset: form.Offset, Reason: fmt.Sprintf("not a FORM/IFRS bundle (%s)", form)}
	}

	b := &Bundle{
		form:         form,
		resources:    make(map[resKey]*Resource),
		scales:       make(map[uint32]ScaleEntry),
		adaptive:     make(map[uint32]struct{}),
		descriptions: make(map[resKey]string),
	}

	var (
		index  *iff.Chunk
		byOff  = make(map[uint32]*iff.Chunk, len(form.Children))
		offset = uint64(12)
	)
	for _, c := range form.Children {
		if c == nil {
			return nil, iff.Errorf("bundle has a nil child")
		}
		byOff[uint32(offset)] = c
		offset += uint64(c.Size())

		if c.ID == IDResourceIndex {
			if index != nil {
				return nil, &iff.FormatError{ID: c.ID, Offset: c.Offset, Reason: "bundle has more than one resource index"}
			}
			index = c
			continue
		}
		if err := b.scan(c); err != nil {
			return nil, &iff.FormatError{ID: c.ID, Offset: c.Offset, Reason: "decode payload", Err: err}
		}
	}
	if index == nil {
		return nil, &iff.FormatError{ID: form.ID, Offset: form.Offset, Reason: "bundle has no resource index"}
	}

	entries, err := valueOrDecode(index, decodeIndex)
	if err != nil {
		return nil, &iff.FormatError{ID: index.ID, Offset: index.Offset, Reason: "decode payload", Err: err}
	}
	for _, e := range entries {
		key := resKey{e.Usage, e.Number}
		if _, dup := b.resources[key]; dup {
			return nil, &iff.FormatError{ID: index.ID, Offset: index.Offset, Reason: fmt.Sprintf("duplicate entry for %q %d", string(e.Usage), e.Number)}
		}
		c, ok := byOff[e.Offset]
		if !ok {
			return nil, &iff.FormatError{ID: index.ID, Offset: index.Offset, Reason: fmt.Sprintf("%q %d points at offset %d, which is not a chunk", string(e.Usage), e.Number, e.Offset)}
		}
		r := &Resource{Usage: e.Usage, Number: e.Number, Offset: e.Offset, Format: formatOf(c), Chunk: c}
		if c.IsComposite() {
			if r.data, err = iff.Serialize(c); err != nil {
				return nil, err
			}
		} else {
			r.data = c.Payload()
		}
		if e.Usage == UsagePicture {
			if s, ok := b.scales[e.Number]; ok {
				r.Scale = &s
			}
		}
		b.resources[key] = r
	}

	if loops := form.Find(IDLoop); loops != nil {
		table, err := valueOrDecode(loops, decodeLoop)
		if err != nil {
			return nil, &iff.FormatError{ID: loops.ID, Offset: loops.Offset, Reason: "decode payload", Err: err}
		}
		for _, l := range table {
			if r, ok := b.resources[resKey{UsageSound, l.Sound}]; ok {
				r.Repeats = l.Repeats
				r.HasRepeats = true
			}
		}
	}
	return b, nil
}

// scan records the first occurrence of each top-level metadata chunk.
func (b *Bundle) scan(c *iff.Chunk) error {
	switch c.ID {
	case IDIdentity:
		if b.hasIdentity {
			return nil
		}
		id, err := gameid.FromChunk(c)
		if err != nil {
			return err
		}
		b.identity, b.hasIdentity = id, true
	case IDResolution:
		if b.hasResolution {
			return nil
		}
		r, err := valueOrDecode(c, decodeResolution)
		if err != nil {
			return err
		}
		b.resolution, b.hasResolution = r, true
		for _, e := range r.Entries {
			b.scales[e.Image] = e
		}
	case IDAdaptivePalette:
		imgs, err := valueOrDecode(c, decodeAdaptive)
		if err != nil {
			return err
		}
		for _, n := range imgs {
			b.adaptive[n] = struct{}{}
		}
	case IDFrontispiece:
		if b.hasFrontispiece {
			return nil
		}
		f, err := valueOrDecode(c, decodeFrontispiece)
		if err != nil {
			return err
		}
		b.frontispiece, b.hasFrontispiece = uint32(f), true
	case IDMetadata:
		if b.hasMetadata {
			return nil
		}
		m, err := valueOrDecode(c, decodeMetadata)
		if err != nil {
			return err
		}
		b.metadata, b.hasMetadata = string(m), true
	case IDStoryName:
		if b.hasStoryName {
			return nil
		}
		s, err := valueOrDecode(c, decodeStoryName)
		if err != nil {
			return err
		}
		b.storyName, b.hasStoryName = string(s), true
	case IDReleaseNumber:
		if b.hasRelease {
			return nil
		}
		r, err := valueOrDecode(c, decodeRelease)
		if err != nil {
			return err
		}
		b.release, b.hasRelease = uint16(r), true
	case IDPalette:
		if b.hasColorPalette {
			return nil
		}
		p, err := valueOrDecode(c, decodePalette)
		if err != nil {
			return err
		}
		b.colorPalette, b.hasColorPalette = p, true
	case IDDescriptions:
		ds, err := valueOrDecode(c, decodeDescriptions)
		if err != nil {
			return err
		}
		for _, d := range ds {
			b.descriptions[resKey{d.Usage, d.Number}] = d.Text
		}
	}
	return nil
}

// valueOrDecode prefers the value decoded at parse time and falls back to
// decoding the payload for trees built by hand or parsed with another registry.
func valueOrDecode[T any](c *iff.Chunk, decode func([]byte) (T, error)) (T, error) {
	if v, ok := iff.ValueAs[T](c); ok {
		return v, nil
	}
	return decode(c.Payload())
}

// Form returns the chunk tree the bundle was resolved from.
func (b *Bundle) Form() *iff.Chunk {
	return b.form
}

// Resource returns the entry for usage and number.
func (b *Bundle) Resource(usage Usage, number uint32) (Resource, bool) {
	r, ok := b.resources[resKey{usage, number}]
	if !ok {
		return Resource{}, false
	}
	return *r, true
}

// Resources returns every entry ordered by usage, then number.
func (b *Bundle) Resources() []Resource {
	out := make([]Resource, 0, len(b.resources))
	for _, r := range b.resources {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, c Resource) int {
		if n := cmp.Compare(a.Usage, c.Usage); n != 0 {
			return n
		}
		return cmp.Compare(a.Number, c.Number)
	})
	return out
}

func (b *Bundle) data(usage Usage, n uint32) ([]byte, bool) {
	r, ok := b.resources[resKey{usage, n}]
	if !ok {
		return nil, false
	}
	return r.data, true
}

func (b *Bundle) format(usage Usage, n uint32) (Format, bool) {
	r, ok := b.resources[resKey{usage, n}]
	if !ok {
		return "", false
	}
	return r.Format, true
}

func (b *Bundle) Executable(n uint32) ([]byte, bool) { return b.data(UsageExecutable, n) }
func (b *Bundle) Image(n uint32) ([]byte, bool)      { return b.data(UsagePicture, n) }

// Sound returns the sound bytes. AIFF sounds are returned as the complete
// FORM chunk so they can be handed to an AIFF decoder as-is.
func (b *Bundle) Sound(n uint32) ([]byte, bool) { return b.data(UsageSound, n) }

// DataResource returns a Data resource (TEXT or BINA).
func (b *Bundle) DataResource(n uint32) ([]byte, bool) { return b.data(UsageData, n) }

func (b *Bundle) ExecutableFormat(n uint32) (Format, bool) { return b.format(UsageExecutable, n) }
func (b *Bundle) ImageFormat(n uint32) (Format, bool)      { return b.format(UsagePicture, n) }
func (b *Bundle) SoundFormat(n uint32) (Format, bool)      { return b.format(UsageSound, n) }

// SoundClass reports AIFF sounds as effects and everything else as music.
func (b *Bundle) SoundClass(n uint32) (SoundClass, bool) {
	f, ok := b.SoundFormat(n)
	if !ok {
		return 0, false
	}
	if f == FormatAIFF {
		return SoundEffect, true
	}
	return SoundMusic, true
}

// SoundRepeats returns the Loop entry for a sound.
func (b *Bundle) SoundRepeats(n uint32) (uint32, bool) {
	r, ok := b.resources[resKey{UsageSound, n}]
	if !ok || !r.HasRepeats {
		return 0, false
	}
	return r.Repeats, true
}

// VerifyGame reports whether the story file starting with candidate is the
// game this bundle belongs to. A bundle without an IFhd chunk accepts
// anything.
func (b *Bundle) VerifyGame(candidate []byte) bool {
	return b.CheckGame(candidate) == nil
}

// CheckGame is VerifyGame returning an error that matches ErrGameMismatch.
func (b *Bundle) CheckGame(candidate []byte) error {
	if !b.hasIdentity {
		return nil
	}
	got, err := gameid.FromStoryHeader(candidate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGameMismatch, err)
	}
	if !b.identity.Matches(got) {
		return fmt.Errorf("%w: bundle wants %s, story is %s", ErrGameMismatch, b.identity, got)
	}
	return nil
}

func (b *Bundle) Identity() (gameid.Identity, bool) {
	return b.identity, b.hasIdentity
}

func (b *Bundle) Geometry() (ScreenGeometry, bool) {
	return b.resolution.Geometry, b.hasResolution
}

// ScaleEntry returns the Reso entry for a picture.
func (b *Bundle) ScaleEntry(image uint32) (ScaleEntry, bool) {
	e, ok := b.scales[image]
	return e, ok
}

// Metadata returns the raw iFiction XML from the IFmd chunk.
func (b *Bundle) Metadata() (string, bool) {
	return b.metadata, b.hasMetadata
}

func (b *Bundle) StoryName() (string, bool) {
	return b.storyName, b.hasStoryName
}

func (b *Bundle) Release() (uint16, bool) {
	return b.release, b.hasRelease
}

func (b *Bundle) ColorPalette() (ColorPalette, bool) {
	p := b.colorPalette
	p.Colors = slices.Clone(p.Colors)
	return p, b.hasColorPalette
}

func (b *Bundle) Description(usage Usage, n uint32) (string, bool) {
	d, ok := b.descriptions[resKey{usage, n}]
	return d, ok
}

func (b *Bundle) Frontispiece() (uint32, bool) {
	return b.frontispiece, b.hasFrontispiece
}
