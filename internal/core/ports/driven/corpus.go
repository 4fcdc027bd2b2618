package driven

import (
	"context"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// CorpusLoader reads the knowledge-source corpus and parses each file
// into a document (provenance headers, title, body). Implementations
// decide which files belong to the corpus; parsing is lenient and
// never fails a load - header completeness is validated later by the
// chunker, per document.
type CorpusLoader interface {
	// Load parses every corpus file. The returned slice is ordered
	// deterministically (by document name) so identical corpora
	// produce identical builds.
	Load(ctx context.Context) ([]domain.Document, error)
}
