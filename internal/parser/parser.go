// Package parser extracts capability-specific arguments from a free-text query.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// MinSummaryWords is the smallest text a summarization request accepts.
const MinSummaryWords = 30

// Default translation pair used when the query carries no directive.
const (
	DefaultSourceLanguage = "en"
	DefaultTargetLanguage = "es"
)

// Guidance reasons.
const (
	ReasonEmptyQuery            = "empty_query"
	ReasonMissingResume         = "missing_resume"
	ReasonMissingJobDescription = "missing_job_description"
	ReasonTooShort              = "too_short"
)

const (
	msgEmptyQuery            = "Your query is empty. Please provide some text for the agent to work with."
	msgMissingResume         = "I couldn't identify your resume in the query. Please provide your resume details."
	msgMissingJobDescription = "I couldn't identify the job description in the query. Please provide the job description details."
	msgTooShort              = "The text is too short to summarize. Please provide a longer text."
)

var (
	translateRe      = regexp.MustCompile(`(?is)translate\s+from\s+(\w+)\s+to\s+(\w+)\s*:?\s*(.*)`)
	resumeRe         = regexp.MustCompile(`(?is)resume:\s*(.*?)(?:job description:|\z)`)
	jobDescriptionRe = regexp.MustCompile(`(?is)job description:\s*(.*)`)

	// Tried in order; the first match is stripped.
	summarizePrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?is)^summarize:\s*`),
		regexp.MustCompile(`(?is)^please\s+summarize:\s*`),
		regexp.MustCompile(`(?is)^summarize\s+this\s+text:\s*`),
		regexp.MustCompile(`(?is)^summarize\s+the\s+following:\s*`),
	}
)

// GuidanceError reports that a query lacks the information a capability
// needs. It is a user-facing outcome, not a failure.
type GuidanceError struct {
	Reason  string
	Message string
}

func (e *GuidanceError) Error() string {
	return e.Message
}

// Request is the structured argument set for one capability.
type Request struct {
	Capability domain.Capability

	// Text is the input for chatbot, sentiment, summarization and translation.
	Text string

	// Translation only.
	SourceLang string
	TargetLang string

	// Job application only.
	Resume         string
	JobDescription string
}

// ModelKey returns the resource pool key that serves this request.
func (r *Request) ModelKey() domain.ModelKey {
	if r.Capability == domain.CapabilityTranslation {
		return domain.TranslationKey(r.SourceLang, r.TargetLang)
	}
	return domain.CapabilityKey(r.Capability)
}

// Parse builds the Request for capability from a raw query. A query that
// cannot be served returns a *GuidanceError.
func Parse(capability domain.Capability, query string) (*Request, error) {
	query = strings.ReplaceAll(query, "\r\n", "\n")
	if strings.TrimSpace(query) == "" {
		return nil, &GuidanceError{Reason: ReasonEmptyQuery, Message: msgEmptyQuery}
	}

	switch capability {
	case domain.CapabilityChatbot, domain.CapabilitySentiment:
		return &Request{Capability: capability, Text: query}, nil
	case domain.CapabilityTranslation:
		return parseTranslation(query)
	case domain.CapabilitySummarization:
		return parseSummarization(query)
	case domain.CapabilityJobApplication:
		return parseJobApplication(query)
	default:
		return nil, fmt.Errorf("unsupported capability: %s", capability)
	}
}

func parseTranslation(query string) (*Request, error) {
	req := &Request{
		Capability: domain.CapabilityTranslation,
		SourceLang: DefaultSourceLanguage,
		TargetLang: DefaultTargetLanguage,
		Text:       strings.TrimSpace(query),
	}

	if m := translateRe.FindStringSubmatch(query); m != nil {
		req.SourceLang = ResolveLanguage(m[1])
		req.TargetLang = ResolveLanguage(m[2])
		req.Text = strings.TrimSpace(m[3])
		if req.Text == "" {
			return nil, &GuidanceError{Reason: ReasonEmptyQuery, Message: msgEmptyQuery}
		}
	}

	return req, nil
}

func parseSummarization(query string) (*Request, error) {
	text := strings.TrimSpace(query)
	for _, prefix := range summarizePrefixes {
		if loc := prefix.FindStringIndex(text); loc != nil {
			text = text[loc[1]:]
			break
		}
	}

	if len(strings.Fields(text)) < MinSummaryWords {
		return nil, &GuidanceError{Reason: ReasonTooShort, Message: msgTooShort}
	}

	return &Request{Capability: domain.CapabilitySummarization, Text: text}, nil
}

func parseJobApplication(query string) (*Request, error) {
	var resume, jobDescription string

	if m := resumeRe.FindStringSubmatch(query); m != nil {
		resume = strings.TrimSpace(m[1])
	}
	if m := jobDescriptionRe.FindStringSubmatch(query); m != nil {
		jobDescription = strings.TrimSpace(m[1])
	}

	if resume == "" || jobDescription == "" {
		parts := strings.Split(query, "\n\n")
		if len(parts) >= 2 {
			resume = strings.TrimSpace(parts[0])
			jobDescription = strings.TrimSpace(parts[1])
		}
	}

	if resume == "" {
		return nil, &GuidanceError{Reason: ReasonMissingResume, Message: msgMissingResume}
	}
	if jobDescription == "" {
		return nil, &GuidanceError{Reason: ReasonMissingJobDescription, Message: msgMissingJobDescription}
	}

	return &Request{
		Capability:     domain.CapabilityJobApplication,
		Resume:         resume,
		JobDescription: jobDescription,
	}, nil
}
