package core

import (
	"fmt"
	"strconv"
)

// Metadata identifies where a piece of text came from.
type Metadata struct {
	// Source is the base name of the PDF file, e.g. "manual.pdf".
	Source string
	// Page is the 0-based page number within the source file.
	Page int
}

// PageID returns the "source:page" composite that groups chunks belonging
// to the same page.
func (m Metadata) PageID() string {
	return m.Source + ":" + strconv.Itoa(m.Page)
}

// Document is the text of a single PDF page together with its provenance.
// Documents are produced by the loader and consumed by the splitter; they
// are not stored.
type Document struct {
	Text     string
	Metadata Metadata
}

// Chunk is a bounded span of page text, the unit of embedding and storage.
// ID and Index are zero values until AssignIDs has run over the ordered
// chunk sequence.
type Chunk struct {
	Text     string
	Metadata Metadata

	// ID is the deterministic "source:page:index" identifier.
	ID string
	// Index is the 0-based position of the chunk within its page.
	Index int
	// Checksum is a BLAKE2b digest of Text, stored alongside the vector so
	// a future run can detect content drift behind an unchanged identifier.
	Checksum uint64
}

// Validate checks that a chunk is complete enough to be stored.
func (c *Chunk) Validate() error {
	if c.Text == "" {
		return fmt.Errorf("%w: chunk %q", ErrEmptyText, c.ID)
	}
	if c.ID == "" {
		return fmt.Errorf("%w: chunk from %s", ErrMissingID, c.Metadata.PageID())
	}
	return nil
}
