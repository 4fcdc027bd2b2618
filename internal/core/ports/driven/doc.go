// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CorpusLoader: Reads and parses knowledge-source files
//   - Chunker: Splits documents into overlapping passages
//   - EmbeddingService: Generates vector embeddings
//   - IndexFactory: Builds and loads vector indexes
//   - GenerationStore: Persists index generations to disk
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Generates roadmaps. Without it, queries fail with a
//     typed error while rebuilds and retrieval keep working.
//   - Mailer: Sends FIR drafts. Without it, email delivery is disabled.
//   - PromptStore: Custom prompt templates. Without it, embedded
//     defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
