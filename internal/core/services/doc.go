// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval-augmented generation pipeline is assembled here:
// the Indexer builds immutable index generations from the corpus,
// the Retriever ranks chunks against a query, the Composer turns
// ranked passages into a generation prompt, the Generator validates
// model output into a roadmap, and the RoadmapService ties the
// stages together. The FIRService renders roadmaps into FIR drafts.
//
// Services depend only on the domain and port packages, never on a
// concrete adapter.
package services
