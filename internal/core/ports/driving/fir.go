package driving

import (
	"context"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// FIRService renders and delivers First Information Report drafts.
type FIRService interface {
	// Draft renders a draft from an already generated roadmap.
	// It is pure: the same inputs always produce the same draft.
	Draft(query string, roadmap domain.Roadmap) domain.FIRDraft

	// DraftFromQuery answers the query and renders a draft from the
	// resulting roadmap.
	DraftFromQuery(ctx context.Context, query string, opts domain.AnswerOptions) (domain.FIRDraft, domain.Roadmap, error)

	// SendDraft answers the query, renders a draft, and emails it to
	// the recipient. A delivery failure does not invalidate the
	// roadmap; the error reports which stage failed.
	SendDraft(ctx context.Context, recipient, recipientName, query string, opts domain.AnswerOptions) (domain.FIRDraft, error)
}
