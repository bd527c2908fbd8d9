package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/documentloaders"

	"pdfstash/core"
)

// defaultLoaderWorkers bounds the PDF extraction pool.
const defaultLoaderWorkers = 4

// DirectoryLoader reads every PDF in a single directory and produces one
// core.Document per page.
type DirectoryLoader struct {
	dir     string
	workers int
	logger  *slog.Logger
}

// LoaderOption is a functional option for configuring a DirectoryLoader.
type LoaderOption func(*DirectoryLoader)

// WithWorkers sets the size of the extraction worker pool.
func WithWorkers(n int) LoaderOption {
	return func(l *DirectoryLoader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLoaderLogger sets the logger used for per-file progress.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *DirectoryLoader) {
		l.logger = logger
	}
}

// NewDirectoryLoader creates a loader over the given directory.
func NewDirectoryLoader(dir string, opts ...LoaderOption) *DirectoryLoader {
	l := &DirectoryLoader{
		dir:     dir,
		workers: defaultLoaderWorkers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load extracts all PDFs under the directory and returns their pages as
// documents, ordered by source file name and then page number. An empty or
// PDF-free directory yields an empty slice and no error.
func (l *DirectoryLoader) Load(ctx context.Context) ([]core.Document, error) {
	paths, err := listPDFs(l.dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		l.logger.Warn("no PDF files found", "dir", l.dir)
		return []core.Document{}, nil
	}

	pool, err := ants.NewPool(l.workers)
	if err != nil {
		return nil, fmt.Errorf("creating loader pool: %w", err)
	}
	defer pool.Release()

	results := make([][]core.Document, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = loadFile(ctx, path)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submitting %s: %w", path, submitErr)
		}
	}
	wg.Wait()

	var docs []core.Document
	for i, path := range paths {
		if errs[i] != nil {
			return nil, fmt.Errorf("loading %s: %w", path, errs[i])
		}
		l.logger.Info("loaded PDF",
			"source", filepath.Base(path),
			"pages", len(results[i]))
		docs = append(docs, results[i]...)
	}
	return docs, nil
}

// listPDFs returns the absolute paths of all PDF files directly inside dir,
// sorted by file name. The extension match is case-insensitive.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// loadFile extracts one document per page from a single PDF. Pages come
// back from the underlying loader with 1-based numbering and are converted
// to 0-based here.
func loadFile(ctx context.Context, path string) ([]core.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	loaded, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	source := filepath.Base(path)
	docs := make([]core.Document, 0, len(loaded))
	for _, d := range loaded {
		page := 0
		if p, ok := d.Metadata["page"].(int); ok {
			page = p - 1
		}
		docs = append(docs, core.Document{
			Text: d.PageContent,
			Metadata: core.Metadata{
				Source: source,
				Page:   page,
			},
		})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Metadata.Page < docs[j].Metadata.Page
	})
	return docs, nil
}
