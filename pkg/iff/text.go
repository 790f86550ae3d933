package iff

import (
	"golang.org/x/text/encoding/charmap"
)

// Text is the body of the generic annotation chunks (AUTH, ANNO, "(c) ",
// NAME). IFF stores these as ISO 8859-1.
type Text string

func decodeText(p []byte) (Text, error) {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(p)
	if err != nil {
		return "", err
	}
	return Text(s), nil
}

func encodeText(t Text) ([]byte, error) {
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(t))
	if err != nil {
		return nil, Errorf("text %q is not representable in ISO 8859-1: %v", string(t), err)
	}
	return b, nil
}

// Base is the module every format registry starts from: the composite
// identifiers and the generic text chunks.
func Base() Module {
	text := TypedCodec(decodeText, encodeText)
	return Module{
		Name:       "iff",
		Composites: []ID{IDForm, IDList, IDCat},
		Codecs: map[ID]Codec{
			IDAuthor:     text,
			IDAnnotation: text,
			IDCopyright:  text,
			IDName:       text,
		},
	}
}
