package domain

import "strings"

// Roadmap is the structured legal guidance produced for one query.
// Every field is non-empty in any value handed to a caller; candidates
// that fail validation are repaired or rejected, never returned partial.
type Roadmap struct {
	// CrimeType is the model's classification of the incident,
	// e.g. "Theft (IPC Section 379)".
	CrimeType string `json:"crime_type"`

	// ImmediateActions are the steps to take right away, in order.
	ImmediateActions []string `json:"immediate_actions"`

	// FIRSteps describe how to file the First Information Report.
	FIRSteps []string `json:"fir_steps"`

	// EvidenceToPreserve lists evidence the complainant should keep.
	EvidenceToPreserve []string `json:"evidence_to_preserve"`

	// RelevantLaws lists the statutes and sections that apply.
	RelevantLaws []string `json:"relevant_laws"`
}

// Normalize trims surrounding whitespace from every field and drops
// blank list entries. It does not validate; call Validate after.
func (r Roadmap) Normalize() Roadmap {
	return Roadmap{
		CrimeType:          strings.TrimSpace(r.CrimeType),
		ImmediateActions:   trimEntries(r.ImmediateActions),
		FIRSteps:           trimEntries(r.FIRSteps),
		EvidenceToPreserve: trimEntries(r.EvidenceToPreserve),
		RelevantLaws:       trimEntries(r.RelevantLaws),
	}
}

// Validate reports the schema violations of a candidate roadmap.
// An empty slice means the roadmap is valid. Whitespace-only values
// count as empty.
func (r Roadmap) Validate() []string {
	var violations []string
	if strings.TrimSpace(r.CrimeType) == "" {
		violations = append(violations, "crime_type is empty")
	}
	if countNonBlank(r.ImmediateActions) == 0 {
		violations = append(violations, "immediate_actions is empty")
	}
	if countNonBlank(r.FIRSteps) == 0 {
		violations = append(violations, "fir_steps is empty")
	}
	if countNonBlank(r.EvidenceToPreserve) == 0 {
		violations = append(violations, "evidence_to_preserve is empty")
	}
	if countNonBlank(r.RelevantLaws) == 0 {
		violations = append(violations, "relevant_laws is empty")
	}
	return violations
}

func trimEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if t := strings.TrimSpace(e); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func countNonBlank(entries []string) int {
	n := 0
	for _, e := range entries {
		if strings.TrimSpace(e) != "" {
			n++
		}
	}
	return n
}

// AnswerOptions carries the optional retrieval filters of a query.
type AnswerOptions struct {
	// City narrows retrieval to sources scoped to a matching city.
	City string

	// IncidentType narrows retrieval to a matching incident category.
	IncidentType string
}

// FIRDraft is a rendered First Information Report draft in both the
// plain-text and HTML forms used for email delivery. It is derived from
// a roadmap and the original query and is not persisted.
type FIRDraft struct {
	Subject string
	Text    string
	HTML    string
}

// Mail is an outbound email handed to the Mailer port.
type Mail struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}
