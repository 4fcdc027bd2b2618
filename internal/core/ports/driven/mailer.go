package driven

import (
	"context"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// Mailer delivers outbound email. This is an optional service - when
// nil, FIR draft delivery is disabled and drafts are only rendered.
type Mailer interface {
	// Send delivers the mail. Both the plain-text and HTML bodies are
	// sent as a multipart/alternative message.
	Send(ctx context.Context, mail domain.Mail) error
}
