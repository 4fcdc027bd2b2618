package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driving"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// Ensure FIRService implements the interface.
var _ driving.FIRService = (*FIRService)(nil)

// fallbackCrimeType labels drafts rendered from a roadmap with an
// empty crime type. Validated roadmaps never hit it.
const fallbackCrimeType = "Legal Matter"

// textRule separates sections in the plain-text draft.
var textRule = strings.Repeat("=", 60)

// firHTML renders the HTML alternative of the draft. All values are
// auto-escaped.
var firHTML = template.Must(template.New("fir").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
.header { background-color: #2c3e50; color: white; padding: 20px; border-radius: 5px; margin-bottom: 20px; }
.section { margin-bottom: 25px; padding: 15px; background-color: #f8f9fa; border-left: 4px solid #2c3e50; }
.section-title { font-size: 18px; font-weight: bold; color: #2c3e50; margin-bottom: 10px; }
ul, ol { margin: 10px 0; padding-left: 20px; }
li { margin: 8px 0; }
.query-box { background-color: #e3f2fd; padding: 15px; border-radius: 5px; margin-bottom: 20px; border-left: 4px solid #2196f3; }
.footer { margin-top: 30px; padding: 15px; background-color: #f5f5f5; border-radius: 5px; font-size: 12px; color: #666; }
.warning { background-color: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; }
</style>
</head>
<body>
<div class="header">
<h1>FIR Draft - Nyay Sahayak</h1>
<p>Initial Action Roadmap for Your Legal Matter</p>
</div>
<div class="query-box">
<strong>Your Query:</strong><br>
{{.Query}}
</div>
<div class="section">
<div class="section-title">Crime/Incident Type</div>
<p><strong>{{.CrimeType}}</strong></p>
</div>
<div class="section">
<div class="section-title">Immediate Actions</div>
<ul>
{{range .Roadmap.ImmediateActions}}<li>{{.}}</li>
{{end}}</ul>
</div>
<div class="section">
<div class="section-title">FIR Filing Steps</div>
<ol>
{{range .Roadmap.FIRSteps}}<li>{{.}}</li>
{{end}}</ol>
</div>
<div class="section">
<div class="section-title">Evidence to Preserve</div>
<ul>
{{range .Roadmap.EvidenceToPreserve}}<li>{{.}}</li>
{{end}}</ul>
</div>
<div class="section">
<div class="section-title">Relevant Laws</div>
<ul>
{{range .Roadmap.RelevantLaws}}<li>{{.}}</li>
{{end}}</ul>
</div>
<div class="warning">
<strong>Important Disclaimer:</strong><br>
This is a draft FIR and legal guidance generated by AI. It is for informational purposes only and should not be considered as legal advice. Please consult with a qualified lawyer before taking any legal action. The information provided is based on general legal knowledge and may not be applicable to your specific situation.
</div>
<div class="footer">
<p><strong>Nyay Sahayak - Your AI Guide for Legal First Steps</strong></p>
<p>This email was generated automatically. For legal assistance, please consult with a qualified lawyer.</p>
<p>&copy; 2025 Nyay Sahayak. All rights reserved.</p>
</div>
</body>
</html>
`))

// FIRService renders roadmaps into FIR drafts and optionally delivers
// them by email. Rendering is pure; only SendDraft touches the
// network.
type FIRService struct {
	roadmaps driving.RoadmapService
	mailer   driven.Mailer
}

// NewFIRService creates a FIR draft service. The mailer may be nil,
// which disables SendDraft.
func NewFIRService(roadmaps driving.RoadmapService, mailer driven.Mailer) *FIRService {
	return &FIRService{roadmaps: roadmaps, mailer: mailer}
}

// Draft renders the plain-text and HTML forms of an FIR draft from an
// already generated roadmap.
func (s *FIRService) Draft(query string, roadmap domain.Roadmap) domain.FIRDraft {
	crimeType := strings.TrimSpace(roadmap.CrimeType)
	if crimeType == "" {
		crimeType = fallbackCrimeType
	}

	return domain.FIRDraft{
		Subject: fmt.Sprintf("FIR Draft - %s - Nyay Sahayak", crimeType),
		Text:    renderFIRText(query, crimeType, roadmap),
		HTML:    renderFIRHTML(query, crimeType, roadmap),
	}
}

// DraftFromQuery generates a roadmap for query and renders it as an
// FIR draft. The roadmap is returned alongside the draft so callers
// can surface both.
func (s *FIRService) DraftFromQuery(ctx context.Context, query string, opts domain.AnswerOptions) (domain.FIRDraft, domain.Roadmap, error) {
	roadmap, err := s.roadmaps.Answer(ctx, query, opts)
	if err != nil {
		return domain.FIRDraft{}, domain.Roadmap{}, fmt.Errorf("fir draft: %w", err)
	}
	return s.Draft(query, roadmap), roadmap, nil
}

// SendDraft generates an FIR draft for query and emails it to
// recipient. The recipient is validated and the mailer checked before
// any model call is made.
func (s *FIRService) SendDraft(ctx context.Context, recipient, recipientName, query string, opts domain.AnswerOptions) (domain.FIRDraft, error) {
	addr, err := mail.ParseAddress(recipient)
	if err != nil {
		return domain.FIRDraft{}, fmt.Errorf("%w: %q", domain.ErrInvalidRecipient, recipient)
	}
	if s.mailer == nil {
		return domain.FIRDraft{}, fmt.Errorf("%w: no mailer configured", domain.ErrMailUnavailable)
	}

	draft, _, err := s.DraftFromQuery(ctx, query, opts)
	if err != nil {
		return domain.FIRDraft{}, err
	}

	msg := domain.Mail{
		To:       addr.Address,
		ToName:   recipientName,
		Subject:  draft.Subject,
		TextBody: draft.Text,
		HTMLBody: draft.HTML,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return domain.FIRDraft{}, fmt.Errorf("%w: %w", domain.ErrMailUnavailable, err)
	}

	logger.Info("FIR draft emailed to %s", addr.Address)
	return draft, nil
}

// renderFIRText lays out the plain-text alternative.
func renderFIRText(query, crimeType string, roadmap domain.Roadmap) string {
	var b strings.Builder
	b.WriteString("FIR DRAFT - NYAY SAHAYAK\n")
	b.WriteString("Initial Action Roadmap for Your Legal Matter\n")

	textHeading(&b, "YOUR QUERY:")
	b.WriteString(query + "\n")

	textHeading(&b, "CRIME/INCIDENT TYPE:")
	b.WriteString(crimeType + "\n")

	textHeading(&b, "IMMEDIATE ACTIONS:")
	writeNumbered(&b, roadmap.ImmediateActions)

	textHeading(&b, "FIR FILING STEPS:")
	writeNumbered(&b, roadmap.FIRSteps)

	textHeading(&b, "EVIDENCE TO PRESERVE:")
	writeNumbered(&b, roadmap.EvidenceToPreserve)

	textHeading(&b, "RELEVANT LAWS:")
	writeNumbered(&b, roadmap.RelevantLaws)

	textHeading(&b, "IMPORTANT DISCLAIMER:")
	b.WriteString("This is a draft FIR and legal guidance generated by AI. It is for informational\n")
	b.WriteString("purposes only and should not be considered as legal advice. Please consult with\n")
	b.WriteString("a qualified lawyer before taking any legal action.\n")

	fmt.Fprintf(&b, "\n%s\n\n", textRule)
	b.WriteString("Nyay Sahayak - Your AI Guide for Legal First Steps\n")
	b.WriteString("© 2025 Nyay Sahayak. All rights reserved.\n")

	return b.String()
}

// renderFIRHTML lays out the HTML alternative. A template failure is
// logged and yields an empty HTML body; the text alternative always
// survives.
func renderFIRHTML(query, crimeType string, roadmap domain.Roadmap) string {
	data := struct {
		Query     string
		CrimeType string
		Roadmap   domain.Roadmap
	}{Query: query, CrimeType: crimeType, Roadmap: roadmap}

	var buf bytes.Buffer
	if err := firHTML.Execute(&buf, data); err != nil {
		logger.Warn("FIR HTML render failed: %v", err)
		return ""
	}
	return buf.String()
}

// textHeading writes a rule-separated section heading.
func textHeading(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n%s\n\n%s\n", textRule, title)
}

// writeNumbered writes items as a 1-based numbered list.
func writeNumbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}
