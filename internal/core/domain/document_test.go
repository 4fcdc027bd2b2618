package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func completeMeta() DocumentMeta {
	return DocumentMeta{
		SourceName:    "ipc_theft",
		URL:           "https://example.com/ipc-379",
		DatePublished: "2023-04-01",
		Jurisdiction:  "India",
		DocType:       "statute",
	}
}

// TestDocumentMeta_Validate_Complete tests that complete metadata has no missing fields
func TestDocumentMeta_Validate_Complete(t *testing.T) {
	assert.Empty(t, completeMeta().Validate())
}

// TestDocumentMeta_Validate_Missing tests that missing required headers are reported by name
func TestDocumentMeta_Validate_Missing(t *testing.T) {
	meta := completeMeta()
	meta.URL = ""
	meta.DocType = "   "

	missing := meta.Validate()
	assert.Equal(t, []string{"url", "doc_type"}, missing)
}

// TestDocumentMeta_Validate_OptionalFields tests that city and incident_type are never required
func TestDocumentMeta_Validate_OptionalFields(t *testing.T) {
	meta := completeMeta()
	meta.City = ""
	meta.IncidentType = ""
	assert.Empty(t, meta.Validate())
}

// TestDocumentMeta_Matches tests filter matching semantics
func TestDocumentMeta_Matches(t *testing.T) {
	meta := completeMeta()
	meta.City = "New Delhi"
	meta.IncidentType = "theft"

	tests := []struct {
		name         string
		city         string
		incidentType string
		want         bool
	}{
		{"no filters", "", "", true},
		{"exact city", "New Delhi", "", true},
		{"filter contained in value", "delhi", "", true},
		{"value contained in filter", "new delhi railway station", "", true},
		{"case insensitive", "NEW DELHI", "", true},
		{"city mismatch", "Mumbai", "", false},
		{"incident match", "", "Theft", true},
		{"incident mismatch", "", "fraud", false},
		{"both match", "delhi", "theft", true},
		{"one mismatch fails", "delhi", "fraud", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, meta.Matches(tt.city, tt.incidentType))
		})
	}
}

// TestDocumentMeta_Matches_UnscopedValue tests that a filter excludes chunks without that scope
func TestDocumentMeta_Matches_UnscopedValue(t *testing.T) {
	meta := completeMeta()

	assert.True(t, meta.Matches("", ""))
	assert.False(t, meta.Matches("Delhi", ""))
	assert.False(t, meta.Matches("", "theft"))
}

// TestDocument_Text tests the indexable text assembly
func TestDocument_Text(t *testing.T) {
	doc := Document{Title: "Theft Guide", Body: "Report promptly."}
	assert.Equal(t, "Theft Guide\n\nReport promptly.", doc.Text())

	assert.Equal(t, "Report promptly.", Document{Body: "Report promptly."}.Text())
	assert.Equal(t, "Theft Guide", Document{Title: "Theft Guide"}.Text())
	assert.Equal(t, "", Document{}.Text())
}

// TestChunkID tests the canonical chunk identifier format
func TestChunkID(t *testing.T) {
	assert.Equal(t, "ipc_theft__chunk0", ChunkID("ipc_theft", 0))
	assert.Equal(t, "cyber_fraud__chunk12", ChunkID("cyber_fraud", 12))
}
