// Package filesystem loads the knowledge-source corpus from a local
// directory and watches it for changes.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.CorpusLoader = (*Loader)(nil)

// headerScanLines is how many leading lines of a file are scanned for
// provenance headers. Header lines below the window stay in the text.
const headerScanLines = 10

// Loader reads .txt and .md files from one directory. Each file opens
// with a block of "key: value" provenance headers, optionally followed
// by a "Title:" line, then the body. Parsing is lenient: incomplete
// headers are reported later, per document, when the builder validates
// metadata.
type Loader struct {
	dir string
}

// NewLoader creates a corpus loader for the given directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load parses every corpus file, ordered by file name so identical
// corpora produce identical builds.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isCorpusFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	docs := make([]domain.Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := os.ReadFile(filepath.Join(l.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read corpus file %s: %w", name, err)
		}
		docs = append(docs, parseDocument(name, string(raw)))
	}

	logger.Debug("Corpus: loaded %d documents from %s", len(docs), l.dir)
	return docs, nil
}

// isCorpusFile reports whether a file name belongs to the corpus.
func isCorpusFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}

// parseDocument splits a raw file into headers, title and body. The
// document name is the file name, so chunk IDs keep the original
// "file.txt__chunk0" shape and never collide across extensions.
func parseDocument(fileName, raw string) domain.Document {
	meta := domain.DocumentMeta{SourceName: fileName}

	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		if i < headerScanLines && consumeHeader(&meta, line) {
			continue
		}
		kept = append(kept, line)
	}

	title, body := splitTitle(kept)
	return domain.Document{
		Name:  fileName,
		Title: title,
		Body:  body,
		Meta:  meta,
	}
}

// consumeHeader parses one "key: value" line into the metadata. Only
// recognised keys are consumed; anything else stays in the text. An
// explicitly empty value overwrites, so a blank required header fails
// the document instead of silently keeping a default.
func consumeHeader(meta *domain.DocumentMeta, line string) bool {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)

	switch strings.ToLower(strings.TrimSpace(key)) {
	case "source_name":
		meta.SourceName = value
	case "url":
		meta.URL = value
	case "date_published":
		meta.DatePublished = value
	case "jurisdiction":
		meta.Jurisdiction = value
	case "doc_type":
		meta.DocType = value
	case "city":
		meta.City = value
	case "incident_type":
		meta.IncidentType = value
	default:
		return false
	}
	return true
}

// splitTitle extracts the title when the first non-blank content line
// is a "Title:" line. A "Title:" further down is body text.
func splitTitle(lines []string) (title, body string) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if rest, ok := cutPrefixFold(trimmed, "title:"); ok {
			return strings.TrimSpace(rest), strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
		break
	}
	return "", strings.TrimSpace(strings.Join(lines, "\n"))
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
