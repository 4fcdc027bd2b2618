package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrMalformedDocument indicates a knowledge-source file is missing
	// required provenance headers or cannot be parsed. The index builder
	// records and skips such documents rather than aborting the build.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrEmbeddingUnavailable indicates the embedding service cannot be
	// reached or is not configured. Fatal at startup; aborts a rebuild.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexCorrupt indicates a persisted index does not match its
	// metadata (truncated file, CRC mismatch, misaligned chunk records).
	// A corrupt generation is never served, not even partially.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrRetrievalUnavailable indicates no index generation has been
	// published yet, so queries cannot be answered.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationUnavailable indicates the language model could not be
	// reached after bounded retries, or the call was canceled.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrSchemaViolation indicates the model output did not satisfy the
	// roadmap schema even after the repair pass.
	ErrSchemaViolation = errors.New("response violates roadmap schema")

	// ErrCorpusEmpty indicates a rebuild produced zero chunks.
	ErrCorpusEmpty = errors.New("corpus produced no chunks")

	// ErrInvalidQuery indicates the query text is outside the accepted
	// length bounds.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrRebuildInProgress indicates a rebuild is already running.
	ErrRebuildInProgress = errors.New("rebuild already in progress")

	// ErrInvalidRecipient indicates an email address that fails
	// RFC 5322 parsing.
	ErrInvalidRecipient = errors.New("invalid recipient address")

	// ErrMailUnavailable indicates mail delivery is not configured or
	// the SMTP relay rejected the message.
	ErrMailUnavailable = errors.New("mail delivery unavailable")

	// ErrTransport marks a transient provider failure (timeout, 429, 5xx).
	// Gateways retry on it; it never escapes to callers unwrapped.
	ErrTransport = errors.New("transient transport failure")
)
