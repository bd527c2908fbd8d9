package corpus

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"pdfstash/core"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 800
	// DefaultChunkOverlap is the number of characters shared between
	// adjacent chunks of the same page.
	DefaultChunkOverlap = 80
)

// Splitter cuts page documents into overlapping chunks.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// SplitterOption is a functional option for configuring a Splitter.
type SplitterOption func(*splitterConfig)

type splitterConfig struct {
	chunkSize    int
	chunkOverlap int
}

// WithChunkSize sets the target chunk length in characters.
func WithChunkSize(n int) SplitterOption {
	return func(c *splitterConfig) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithChunkOverlap sets the overlap between adjacent chunks.
func WithChunkOverlap(n int) SplitterOption {
	return func(c *splitterConfig) {
		if n >= 0 {
			c.chunkOverlap = n
		}
	}
}

// NewSplitter creates a splitter with the default chunk geometry unless
// overridden by options.
func NewSplitter(opts ...SplitterOption) *Splitter {
	cfg := &splitterConfig{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.chunkSize),
			textsplitter.WithChunkOverlap(cfg.chunkOverlap),
		),
	}
}

// Split cuts the documents into chunks, preserving document order and the
// splitter's own within-page ordering. Every chunk inherits its document's
// metadata and carries a checksum of its text. Identifiers are not assigned
// here; callers run core.AssignIDs over the full result.
func (s *Splitter) Split(docs []core.Document) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	for _, doc := range docs {
		parts, err := s.inner.SplitText(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("splitting %s page %d: %w",
				doc.Metadata.Source, doc.Metadata.Page, err)
		}
		for _, text := range parts {
			if text == "" {
				continue
			}
			chunks = append(chunks, &core.Chunk{
				Text:     text,
				Metadata: doc.Metadata,
				Checksum: core.ChecksumFromContent(text),
			})
		}
	}
	return chunks, nil
}
