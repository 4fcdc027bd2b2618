package domain

import (
	"fmt"
	"strings"
)

// DocumentMeta carries the provenance headers parsed from the top of a
// knowledge-source file. The first five fields are required for a
// document to be indexable; City and IncidentType are optional and only
// used as retrieval filters.
type DocumentMeta struct {
	// SourceName is the display name of the source. The corpus loader
	// defaults it to the file name when the header is absent.
	SourceName string `json:"source_name"`

	// URL is the canonical location of the source material.
	URL string `json:"url"`

	// DatePublished is the publication date as written in the source.
	DatePublished string `json:"date_published"`

	// Jurisdiction is the legal jurisdiction the source applies to.
	Jurisdiction string `json:"jurisdiction"`

	// DocType classifies the source (statute, guide, procedure, ...).
	DocType string `json:"doc_type"`

	// City scopes the source to a city when set.
	City string `json:"city,omitempty"`

	// IncidentType scopes the source to an incident category when set.
	IncidentType string `json:"incident_type,omitempty"`
}

// Validate reports the required header fields that are missing.
// An empty slice means the metadata is complete.
func (m DocumentMeta) Validate() []string {
	var missing []string
	if strings.TrimSpace(m.SourceName) == "" {
		missing = append(missing, "source_name")
	}
	if strings.TrimSpace(m.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(m.DatePublished) == "" {
		missing = append(missing, "date_published")
	}
	if strings.TrimSpace(m.Jurisdiction) == "" {
		missing = append(missing, "jurisdiction")
	}
	if strings.TrimSpace(m.DocType) == "" {
		missing = append(missing, "doc_type")
	}
	return missing
}

// Matches reports whether the metadata satisfies the given city and
// incident-type filters. An empty filter always matches. A non-empty
// filter matches when either string contains the other,
// case-insensitively, so "delhi" matches "New Delhi" and vice versa.
func (m DocumentMeta) Matches(city, incidentType string) bool {
	return containsEither(m.City, city) && containsEither(m.IncidentType, incidentType)
}

func containsEither(value, filter string) bool {
	if filter == "" {
		return true
	}
	if value == "" {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(value))
	f := strings.ToLower(strings.TrimSpace(filter))
	return strings.Contains(v, f) || strings.Contains(f, v)
}

// Document represents a knowledge-source document after header parsing.
// It is the unit the index builder chunks and embeds.
type Document struct {
	// Name is the origin identifier, the corpus file name. Chunk IDs
	// are derived from it.
	Name string

	// Title is the human-readable title parsed from the body.
	Title string

	// Body is the full text content after the header block and title.
	Body string

	// Meta holds the provenance headers.
	Meta DocumentMeta
}

// Text returns the indexable text of the document: the title followed
// by the body. Header lines never appear in chunk text.
func (d Document) Text() string {
	if d.Title == "" {
		return d.Body
	}
	if d.Body == "" {
		return d.Title
	}
	return d.Title + "\n\n" + d.Body
}

// Chunk is an overlapping word-bounded passage of a document. Chunks
// are the retrieval unit: vector i of an index generation corresponds
// to chunk i of its chunk slice.
type Chunk struct {
	// ID is "{origin_document}__chunk{position}".
	ID string `json:"id"`

	// Document is the origin document's Name.
	Document string `json:"document"`

	// Position is the ordinal position within the origin document.
	Position int `json:"position"`

	// Text is the chunk's passage text.
	Text string `json:"text"`

	// Meta is the origin document's metadata, inherited unchanged.
	Meta DocumentMeta `json:"meta"`
}

// ChunkID builds the canonical chunk identifier for a document name and
// chunk position.
func ChunkID(document string, position int) string {
	return fmt.Sprintf("%s__chunk%d", document, position)
}

// RetrievedPassage pairs a chunk with its similarity score for one
// query. Passages are per-request values and are never persisted.
type RetrievedPassage struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
