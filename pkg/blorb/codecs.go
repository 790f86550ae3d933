package blorb

import (
	"encoding/binary"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/samcharles93/ififf/pkg/iff"
)

// IndexEntry is one RIdx record.
type IndexEntry struct {
	Usage  Usage
	Number uint32
	Offset uint32
}

// ResourceIndex is the decoded RIdx chunk.
type ResourceIndex []IndexEntry

const indexEntrySize = 12

func decodeIndex(p []byte) (ResourceIndex, error) {
	if len(p) < 4 {
		return nil, iff.Errorf("RIdx payload is %d bytes, need a count", len(p))
	}
	n := binary.BigEndian.Uint32(p)
	if uint64(n)*indexEntrySize > uint64(len(p)-4) {
		return nil, iff.Errorf("RIdx declares %d entries but holds %d bytes", n, len(p)-4)
	}
	out := make(ResourceIndex, n)
	for i := range out {
		e := p[4+i*indexEntrySize:]
		out[i] = IndexEntry{
			Usage:  Usage(e[0:4]),
			Number: binary.BigEndian.Uint32(e[4:8]),
			Offset: binary.BigEndian.Uint32(e[8:12]),
		}
	}
	return out, nil
}

func encodeIndex(idx ResourceIndex) ([]byte, error) {
	p := make([]byte, 0, 4+len(idx)*indexEntrySize)
	p = binary.BigEndian.AppendUint32(p, uint32(len(idx)))
	for _, e := range idx {
		if !e.Usage.valid() {
			return nil, iff.Errorf("usage %q is not 4 bytes", string(e.Usage))
		}
		p = append(p, e.Usage...)
		p = binary.BigEndian.AppendUint32(p, e.Number)
		p = binary.BigEndian.AppendUint32(p, e.Offset)
	}
	return p, nil
}

// ScreenGeometry is the window size range the pictures were drawn for.
type ScreenGeometry struct {
	StandardWidth  uint32
	StandardHeight uint32
	MinWidth       uint32
	MinHeight      uint32
	MaxWidth       uint32
	MaxHeight      uint32
}

// Ratio is a scale factor stored as numerator over denominator.
type Ratio struct {
	Num uint32
	Den uint32
}

// Float returns Num/Den, or 0 for a zero ratio.
func (r Ratio) Float() float64 {
	if r.Num == 0 || r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// ScaleEntry is the per-picture part of a Reso chunk.
type ScaleEntry struct {
	Image    uint32
	Standard Ratio
	Min      Ratio
	Max      Ratio
}

// Resolution is the decoded Reso chunk.
type Resolution struct {
	Geometry ScreenGeometry
	Entries  []ScaleEntry
}

const (
	resoHeaderSize = 24
	resoEntrySize  = 28
)

func decodeResolution(p []byte) (Resolution, error) {
	if len(p) < resoHeaderSize || (len(p)-resoHeaderSize)%resoEntrySize != 0 {
		return Resolution{}, iff.Errorf("Reso payload of %d bytes is not 24 + 28n", len(p))
	}
	u32 := func(off int) uint32 { return binary.BigEndian.Uint32(p[off:]) }
	r := Resolution{Geometry: ScreenGeometry{
		StandardWidth:  u32(0),
		StandardHeight: u32(4),
		MinWidth:       u32(8),
		MinHeight:      u32(12),
		MaxWidth:       u32(16),
		MaxHeight:      u32(20),
	}}
	for off := resoHeaderSize; off < len(p); off += resoEntrySize {
		e := ScaleEntry{
			Image:    u32(off),
			Standard: Ratio{u32(off + 4), u32(off + 8)},
			Min:      Ratio{u32(off + 12), u32(off + 16)},
			Max:      Ratio{u32(off + 20), u32(off + 24)},
		}
		for _, rt := range []Ratio{e.Standard, e.Min, e.Max} {
			if rt.Num != 0 && rt.Den == 0 {
				return Resolution{}, iff.Errorf("Reso entry for image %d has a zero denominator", e.Image)
			}
		}
		r.Entries = append(r.Entries, e)
	}
	return r, nil
}

func encodeResolution(r Resolution) ([]byte, error) {
	g := r.Geometry
	p := make([]byte, 0, resoHeaderSize+len(r.Entries)*resoEntrySize)
	for _, v := range []uint32{g.StandardWidth, g.StandardHeight, g.MinWidth, g.MinHeight, g.MaxWidth, g.MaxHeight} {
		p = binary.BigEndian.AppendUint32(p, v)
	}
	for _, e := range r.Entries {
		for _, v := range []uint32{e.Image, e.Standard.Num, e.Standard.Den, e.Min.Num, e.Min.Den, e.Max.Num, e.Max.Den} {
			p = binary.BigEndian.AppendUint32(p, v)
		}
	}
	return p, nil
}

// AdaptiveImages is the decoded APal chunk: pictures drawn with the carried palette.
type AdaptiveImages []uint32

func decodeU32List(id string, p []byte) ([]uint32, error) {
	if len(p)%4 != 0 {
		return nil, iff.Errorf("%s payload of %d bytes is not a multiple of 4", id, len(p))
	}
	out := make([]uint32, len(p)/4)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(p[i*4:])
	}
	return out, nil
}

func decodeAdaptive(p []byte) (AdaptiveImages, error) {
	v, err := decodeU32List("APal", p)
	return AdaptiveImages(v), err
}

func encodeAdaptive(a AdaptiveImages) ([]byte, error) {
	p := make([]byte, 0, len(a)*4)
	for _, n := range a {
		p = binary.BigEndian.AppendUint32(p, n)
	}
	return p, nil
}

// LoopEntry sets how many times a sound repeats.
type LoopEntry struct {
	Sound   uint32
	Repeats uint32
}

// LoopTable is the decoded Loop chunk.
type LoopTable []LoopEntry

func decodeLoop(p []byte) (LoopTable, error) {
	if len(p)%8 != 0 {
		return nil, iff.Errorf("Loop payload of %d bytes is not a multiple of 8", len(p))
	}
	out := make(LoopTable, len(p)/8)
	for i := range out {
		out[i] = LoopEntry{
			Sound:   binary.BigEndian.Uint32(p[i*8:]),
			Repeats: binary.BigEndian.Uint32(p[i*8+4:]),
		}
	}
	return out, nil
}

func encodeLoop(t LoopTable) ([]byte, error) {
	p := make([]byte, 0, len(t)*8)
	for _, e := range t {
		p = binary.BigEndian.AppendUint32(p, e.Sound)
		p = binary.BigEndian.AppendUint32(p, e.Repeats)
	}
	return p, nil
}

// Frontispiece is the decoded Fspc chunk: the title picture number.
type Frontispiece uint32

func decodeFrontispiece(p []byte) (Frontispiece, error) {
	if len(p) < 4 {
		return 0, iff.Errorf("Fspc payload is %d bytes, need 4", len(p))
	}
	return Frontispiece(binary.BigEndian.Uint32(p)), nil
}

func encodeFrontispiece(f Frontispiece) ([]byte, error) {
	return binary.BigEndian.AppendUint32(nil, uint32(f)), nil
}

// ReleaseNumber is the decoded RelN chunk.
type ReleaseNumber uint16

func decodeRelease(p []byte) (ReleaseNumber, error) {
	if len(p) < 2 {
		return 0, iff.Errorf("RelN payload is %d bytes, need 2", len(p))
	}
	return ReleaseNumber(binary.BigEndian.Uint16(p)), nil
}

func encodeRelease(r ReleaseNumber) ([]byte, error) {
	return binary.BigEndian.AppendUint16(nil, uint16(r)), nil
}

// MetadataXML is the decoded IFmd chunk, an iFiction record.
type MetadataXML string

func decodeMetadata(p []byte) (MetadataXML, error) {
	if !utf8.Valid(p) {
		return "", iff.Errorf("IFmd payload is not valid UTF-8")
	}
	return MetadataXML(p), nil
}

func encodeMetadata(m MetadataXML) ([]byte, error) {
	return []byte(m), nil
}

// StoryName is the decoded SNam chunk.
type StoryName string

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func decodeStoryName(p []byte) (StoryName, error) {
	if len(p)%2 != 0 {
		return "", iff.Errorf("SNam payload of %d bytes is not UTF-16", len(p))
	}
	s, err := utf16be.NewDecoder().Bytes(p)
	if err != nil {
		return "", iff.Errorf("SNam: %v", err)
	}
	return StoryName(s), nil
}

func encodeStoryName(s StoryName) ([]byte, error) {
	return utf16be.NewEncoder().Bytes([]byte(s))
}

// Color is one RGB palette entry.
type Color struct {
	R, G, B uint8
}

// ColorPalette is the decoded Plte chunk. A one-byte payload names a colour
// depth (16 or 32) instead of listing colours.
type ColorPalette struct {
	Depth  uint8
	Colors []Color
}

func decodePalette(p []byte) (ColorPalette, error) {
	if len(p) == 1 {
		return ColorPalette{Depth: p[0]}, nil
	}
	if len(p)%3 != 0 {
		return ColorPalette{}, iff.Errorf("Plte payload of %d bytes is not RGB triples", len(p))
	}
	out := ColorPalette{Colors: make([]Color, len(p)/3)}
	for i := range out.Colors {
		out.Colors[i] = Color{p[i*3], p[i*3+1], p[i*3+2]}
	}
	return out, nil
}

func encodePalette(c ColorPalette) ([]byte, error) {
	if len(c.Colors) == 0 {
		return []byte{c.Depth}, nil
	}
	p := make([]byte, 0, len(c.Colors)*3)
	for _, col := range c.Colors {
		p = append(p, col.R, col.G, col.B)
	}
	return p, nil
}

// RectImage is a placeholder picture that has a size but no pixels.
type RectImage struct {
	Width  uint32
	Height uint32
}

func decodeRect(p []byte) (RectImage, error) {
	if len(p) < 8 {
		return RectImage{}, iff.Errorf("Rect payload is %d bytes, need 8", len(p))
	}
	return RectImage{binary.BigEndian.Uint32(p), binary.BigEndian.Uint32(p[4:])}, nil
}

func encodeRect(r RectImage) ([]byte, error) {
	p := binary.BigEndian.AppendUint32(nil, r.Width)
	return binary.BigEndian.AppendUint32(p, r.Height), nil
}

// Description is a textual description of one resource, for accessibility.
type Description struct {
	Usage  Usage
	Number uint32
	Text   string
}

// Descriptions is the decoded RDes chunk.
type Descriptions []Description

func decodeDescriptions(p []byte) (Descriptions, error) {
	if len(p) < 4 {
		return nil, iff.Errorf("RDes payload is %d bytes, need a count", len(p))
	}
	n := binary.BigEndian.Uint32(p)
	pos := 4
	var out Descriptions
	for i := uint32(0); i < n; i++ {
		if len(p)-pos < 12 {
			return nil, iff.Errorf("RDes entry %d is truncated", i)
		}
		d := Description{
			Usage:  Usage(p[pos : pos+4]),
			Number: binary.BigEndian.Uint32(p[pos+4:]),
		}
		size := uint64(binary.BigEndian.Uint32(p[pos+8:]))
		pos += 12
		if size > uint64(len(p)-pos) {
			return nil, iff.Errorf("RDes entry %d text overruns the chunk", i)
		}
		text := p[pos : pos+int(size)]
		if !utf8.Valid(text) {
			return nil, iff.Errorf("RDes entry %d is not valid UTF-8", i)
		}
		d.Text = string(text)
		pos += int(size)
		out = append(out, d)
	}
	return out, nil
}

func encodeDescriptions(ds Descriptions) ([]byte, error) {
	p := binary.BigEndian.AppendUint32(nil, uint32(len(ds)))
	for _, d := range ds {
		if !d.Usage.valid() {
			return nil, iff.Errorf("usage %q is not 4 bytes", string(d.Usage))
		}
		p = append(p, d.Usage...)
		p = binary.BigEndian.AppendUint32(p, d.Number)
		p = binary.BigEndian.AppendUint32(p, uint32(len(d.Text)))
		p = append(p, d.Text...)
	}
	return p, nil
}

// Module registers the Blorb chunk codecs. Picture, sound and executable
// chunks other than Rect stay opaque.
func Module() iff.Module {
	return iff.Module{
		Name: "blorb",
		Codecs: map[iff.ID]iff.Codec{
			IDResourceIndex:   iff.TypedCodec(decodeIndex, encodeIndex),
			IDResolution:      iff.TypedCodec(decodeResolution, encodeResolution),
			IDAdaptivePalette: iff.TypedCodec(decodeAdaptive, encodeAdaptive),
			IDFrontispiece:    iff.TypedCodec(decodeFrontispiece, encodeFrontispiece),
			IDMetadata:        iff.TypedCodec(decodeMetadata, encodeMetadata),
			IDStoryName:       iff.TypedCodec(decodeStoryName, encodeStoryName),
			IDLoop:            iff.TypedCodec(decodeLoop, encodeLoop),
			IDReleaseNumber:   iff.TypedCodec(decodeRelease, encodeRelease),
			IDPalette:         iff.TypedCodec(decodePalette, encodePalette),
			IDRect:            iff.TypedCodec(decodeRect, encodeRect),
			IDDescriptions:    iff.TypedCodec(decodeDescriptions, encodeDescriptions),
		},
	}
}
