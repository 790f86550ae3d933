// Package report turns parsed bundles, saves and chunk trees into plain
// structures for JSON output from the command line and the HTTP service.
package report

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/samcharles93/ififf/pkg/blorb"
	"github.com/samcharles93/ififf/pkg/gameid"
	"github.com/samcharles93/ififf/pkg/iff"
	"github.com/samcharles93/ififf/pkg/quetzal"
)

// Chunk describes one node of a chunk tree.
type Chunk struct {
	ID       string  `json:"id"`
	SubID    string  `json:"sub_id,omitempty"`
	Offset   int     `json:"offset"`
	Length   int     `json:"length"`
	Decoded  bool    `json:"decoded,omitempty"`
	Children []Chunk `json:"children,omitempty"`
}

// Tree describes c and its descendants.
func Tree(c *iff.Chunk) Chunk {
	out := Chunk{
		ID:      c.ID.String(),
		Offset:  c.Offset,
		Length:  c.Len(),
		Decoded: c.Value != nil,
	}
	if c.IsComposite() {
		out.SubID = c.SubID.String()
		out.Children = make([]Chunk, 0, len(c.Children))
		for _, child := range c.Children {
			out.Children = append(out.Children, Tree(child))
		}
	}
	return out
}

// Identity is the JSON form of a game identity.
type Identity struct {
	Release  uint16 `json:"release"`
	Serial   string `json:"serial"`
	Checksum string `json:"checksum"`
	PC       string `json:"pc,omitempty"`
}

func NewIdentity(id gameid.Identity) *Identity {
	out := &Identity{
		Release:  id.Release,
		Serial:   id.SerialString(),
		Checksum: fmt.Sprintf("%#04x", id.Checksum),
	}
	if id.HasPC {
		out.PC = fmt.Sprintf("%#06x", id.PC)
	}
	return out
}

type Resource struct {
	Usage       string   `json:"usage"`
	Number      uint32   `json:"number"`
	Offset      uint32   `json:"offset"`
	Format      string   `json:"format"`
	Size        int      `json:"size"`
	Repeats     *uint32  `json:"repeats,omitempty"`
	Scale       *Scale   `json:"scale,omitempty"`
	Description string   `json:"description,omitempty"`
	SoundClass  string   `json:"sound_class,omitempty"`
	Adaptive    bool     `json:"adaptive,omitempty"`
	Ratio       *float64 `json:"ratio,omitempty"`
}

type Scale struct {
	Standard string `json:"standard"`
	Min      string `json:"min,omitempty"`
	Max      string `json:"max,omitempty"`
}

func ratio(r blorb.Ratio) string {
	if r.Num == 0 && r.Den == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Geometry holds window sizes as [width, height] pairs.
type Geometry struct {
	Standard [2]uint32 `json:"standard"`
	Min      [2]uint32 `json:"min"`
	Max      [2]uint32 `json:"max"`
}

// Bundle summarises a resolved bundle.
type Bundle struct {
	Identity     *Identity  `json:"identity,omitempty"`
	StoryName    string     `json:"story_name,omitempty"`
	Release      *uint16    `json:"release,omitempty"`
	Frontispiece *uint32    `json:"frontispiece,omitempty"`
	Geometry     *Geometry  `json:"geometry,omitempty"`
	HasMetadata  bool       `json:"has_metadata"`
	Title        string     `json:"title,omitempty"`
	Author       string     `json:"author,omitempty"`
	Resources    []Resource `json:"resources"`
}

// NewBundle summarises b. ex may be nil; when set it supplies the title
// and author from the IFmd record and its errors are ignored.
func NewBundle(b *blorb.Bundle, ex blorb.MetadataExtractor) Bundle {
	var out Bundle
	if id, ok := b.Identity(); ok {
		out.Identity = NewIdentity(id)
	}
	if s, ok := b.StoryName(); ok {
		out.StoryName = s
	}
	if r, ok := b.Release(); ok {
		out.Release = &r
	}
	if f, ok := b.Frontispiece(); ok {
		out.Frontispiece = &f
	}
	if g, ok := b.Geometry(); ok {
		out.Geometry = &Geometry{
			Standard: [2]uint32{g.StandardWidth, g.StandardHeight},
			Min:      [2]uint32{g.MinWidth, g.MinHeight},
			Max:      [2]uint32{g.MaxWidth, g.MaxHeight},
		}
	}
	md, hasMD := b.Metadata()
	out.HasMetadata = hasMD
	if hasMD && ex != nil {
		if bib, err := ex.Extract(md); err == nil {
			out.Title, out.Author = bib.Title, bib.Author
		}
	}

	out.Resources = make([]Resource, 0)
	for _, r := range b.Resources() {
		rr := Resource{
			Usage:  string(r.Usage),
			Number: r.Number,
			Offset: r.Offset,
			Format: string(r.Format),
			Size:   len(r.Data()),
		}
		if r.HasRepeats {
			n := r.Repeats
			rr.Repeats = &n
		}
		if r.Scale != nil {
			rr.Scale = &Scale{Standard: ratio(r.Scale.Standard), Min: ratio(r.Scale.Min), Max: ratio(r.Scale.Max)}
		}
		if d, ok := b.Description(r.Usage, r.Number); ok {
			rr.Description = d
		}
		switch r.Usage {
		case blorb.UsageSound:
			if c, ok := b.SoundClass(r.Number); ok {
				rr.SoundClass = c.String()
			}
		case blorb.UsagePicture:
			rr.Adaptive = b.IsAdaptive(r.Number)
		}
		out.Resources = append(out.Resources, rr)
	}
	return out
}

// WithRatios fills each picture's scale ratio for a winW by winH window.
func (r *Bundle) WithRatios(b *blorb.Bundle, winW, winH uint32) {
	for i := range r.Resources {
		res := &r.Resources[i]
		if res.Usage != string(blorb.UsagePicture) {
			continue
		}
		v := b.ComputeScale(res.Number, winW, winH)
		res.Ratio = &v
	}
}

// Save summarises a save file.
type Save struct {
	Identity    *Identity `json:"identity,omitempty"`
	Memory      string    `json:"memory,omitempty"`
	MemoryBytes int       `json:"memory_bytes"`
	Frames      int       `json:"frames"`
	Extra       []string  `json:"extra,omitempty"`
	Size        int       `json:"size"`
}

func NewSave(s *quetzal.Summary) Save {
	out := Save{
		Memory:      s.MemoryKind,
		MemoryBytes: s.MemoryBytes,
		Frames:      s.Frames,
		Size:        s.Size,
	}
	if s.HasIdentity {
		out.Identity = NewIdentity(s.Identity)
	}
	for _, id := range s.Extra {
		out.Extra = append(out.Extra, id.String())
	}
	return out
}

// Verify is the outcome of checking a bundle against a story file.
type Verify struct {
	Match   bool      `json:"match"`
	Bundle  *Identity `json:"bundle,omitempty"`
	Story   *Identity `json:"story,omitempty"`
	Message string    `json:"message,omitempty"`
}

func NewVerify(b *blorb.Bundle, story []byte) Verify {
	out := Verify{Match: true}
	if id, ok := b.Identity(); ok {
		out.Bundle = NewIdentity(id)
	}
	if id, err := gameid.FromStoryHeader(story); err == nil {
		out.Story = NewIdentity(id)
	}
	if err := b.CheckGame(story); err != nil {
		out.Match = false
		out.Message = err.Error()
	}
	return out
}

// Write encodes v as JSON, indented when pretty is set.
func Write(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
