package blorb

// Bibliographic is the subset of an iFiction record a bundle reader needs.
type Bibliographic struct {
	Title        string
	Author       string
	Headline     string
	Description  string
	CoverPicture uint32
	HasCover     bool
}

// MetadataExtractor reads bibliographic fields out of an IFmd document.
type MetadataExtractor interface {
	Extract(xml string) (Bibliographic, error)
}

// TitlePicture returns the picture number to show as the game's cover. The
// Fspc chunk wins; otherwise the cover picture named in the IFmd record is
// used when ex is not nil. ok is false when neither source names one.
func (b *Bundle) TitlePicture(ex MetadataExtractor) (number uint32, ok bool, err error) {
	if b.hasFrontispiece {
		return b.frontispiece, true, nil
	}
	if !b.hasMetadata || ex == nil {
		return 0, false, nil
	}
	bib, err := ex.Extract(b.metadata)
	if err != nil {
		return 0, false, err
	}
	if !bib.HasCover {
		return 0, false, nil
	}
	return bib.CoverPicture, true, nil
}
