// Package babel extracts bibliographic fields from an iFiction record, the
// XML metadata format stored in a bundle's IFmd chunk.
package babel

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samcharles93/ififf/pkg/blorb"
)

type ifindex struct {
	Stories []story `xml:"story"`
}

type story struct {
	Bibliographic struct {
		Title       string      `xml:"title"`
		Author      string      `xml:"author"`
		Headline    string      `xml:"headline"`
		Description description `xml:"description"`
	} `xml:"bibliographic"`
	ZCode struct {
		CoverPicture string `xml:"coverpicture"`
	} `xml:"zcode"`
}

// description keeps paragraph breaks: each <br/> becomes a blank line and
// whitespace inside each text run is collapsed.
type description string

func (d *description) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "br" {
				b.WriteString("\n\n")
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				*d = description(b.String())
				return nil
			}
			depth--
		case xml.CharData:
			b.WriteString(strings.Join(strings.Fields(string(t)), " "))
		}
	}
}

// Extractor implements blorb.MetadataExtractor. Only the first story in the
// record is read.
type Extractor struct{}

var _ blorb.MetadataExtractor = Extractor{}

// Extract parses doc. Missing elements leave their fields empty; malformed
// XML or a non-numeric cover picture is an error.
func (Extractor) Extract(doc string) (blorb.Bibliographic, error) {
	var idx ifindex
	if err := xml.Unmarshal([]byte(doc), &idx); err != nil {
		return blorb.Bibliographic{}, fmt.Errorf("babel: parse iFiction: %w", err)
	}
	if len(idx.Stories) == 0 {
		return blorb.Bibliographic{}, nil
	}
	s := idx.Stories[0]
	bib := blorb.Bibliographic{
		Title:       strings.TrimSpace(s.Bibliographic.Title),
		Author:      strings.TrimSpace(s.Bibliographic.Author),
		Headline:    strings.TrimSpace(s.Bibliographic.Headline),
		Description: string(s.Bibliographic.Description),
	}
	if cover := strings.TrimSpace(s.ZCode.CoverPicture); cover != "" {
		n, err := strconv.ParseUint(cover, 10, 32)
		if err != nil {
			return blorb.Bibliographic{}, fmt.Errorf("babel: coverpicture %q: %w", cover, errors.Unwrap(err))
		}
		bib.CoverPicture = uint32(n)
		bib.HasCover = true
	}
	return bib, nil
}
