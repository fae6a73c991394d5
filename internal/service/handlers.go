package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/marketplace/internal/adapter/inference"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/parser"
	"github.com/xiaot623/gogo/marketplace/internal/pool"
	"github.com/xiaot623/gogo/marketplace/internal/tracer"
)

const (
	fallbackChatbot           = "I'm sorry, I couldn't generate a response at this time. Please try again later."
	fallbackTranslation       = "I'm sorry, I couldn't translate the text at this time. Please check your input format and try again."
	fallbackTranslationPair   = "I'm sorry, translation from %s to %s is not currently supported. Please try another language pair."
	fallbackSentiment         = "I'm sorry, I couldn't analyze the sentiment at this time. Please try again later."
	fallbackSummarization     = "I'm sorry, I couldn't generate a summary at this time. Please try again later."
	fallbackJobApplication    = "I'm sorry, I couldn't generate a job application document at this time. Please try again later."
	fallbackUnknownCapability = "I'm sorry, this agent is not available right now. Please try again later."
	answerMarker              = "Answer:"
	coverLetterMarker         = "Cover Letter:"
	summarizationPromptPrefix = "summarize: "
	coverLetterHeading        = "Professional Cover Letter"
	sentimentExplainPositive  = "The text expresses a positive sentiment. This indicates satisfaction, happiness, or approval. Such content is generally associated with good experiences or favorable opinions."
	sentimentExplainNegative  = "The text expresses a negative sentiment. This indicates dissatisfaction, unhappiness, or disapproval. Such content is generally associated with bad experiences or unfavorable opinions."
)

var errEmptyOutput = errors.New("model returned empty output")

// execute runs the capability handler for req.
func (s *Service) execute(ctx context.Context, req *parser.Request) (string, error) {
	ctx, span := tracer.StartSpan(ctx, "service.execute")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("capability", string(req.Capability)),
		tracer.StringAttr("model_key", req.ModelKey().String()),
	)

	var (
		text string
		err  error
	)
	switch req.Capability {
	case domain.CapabilityChatbot:
		text, err = s.chat(ctx, req)
	case domain.CapabilityTranslation:
		text, err = s.translate(ctx, req)
	case domain.CapabilitySentiment:
		text, err = s.analyzeSentiment(ctx, req)
	case domain.CapabilitySummarization:
		text, err = s.summarize(ctx, req)
	case domain.CapabilityJobApplication:
		text, err = s.writeCoverLetter(ctx, req)
	default:
		err = fmt.Errorf("unsupported capability: %s", req.Capability)
	}
	if err != nil {
		tracer.RecordError(span, err)
		return "", err
	}
	tracer.SetOK(span)
	return text, nil
}

func (s *Service) generator(ctx context.Context, key domain.ModelKey) (inference.Generator, error) {
	m, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	g, ok := m.(inference.Generator)
	if !ok {
		return nil, fmt.Errorf("model %s cannot generate text", key)
	}
	return g, nil
}

func (s *Service) classifier(ctx context.Context, key domain.ModelKey) (inference.Classifier, error) {
	m, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	c, ok := m.(inference.Classifier)
	if !ok {
		return nil, fmt.Errorf("model %s cannot classify text", key)
	}
	return c, nil
}

func (s *Service) acquire(ctx context.Context, key domain.ModelKey) (inference.Model, error) {
	m, err := s.models.Acquire(ctx, key)
	st := s.models.Stats()
	s.metrics.PoolEntries(st.Loading, st.Ready, st.Failed)
	return m, err
}

func (s *Service) chat(ctx context.Context, req *parser.Request) (string, error) {
	g, err := s.generator(ctx, req.ModelKey())
	if err != nil {
		return "", err
	}

	out, err := g.Generate(ctx, fmt.Sprintf("Question: %s\n\n%s", req.Text, answerMarker))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return nonEmpty(afterLast(out, answerMarker))
}

func (s *Service) translate(ctx context.Context, req *parser.Request) (string, error) {
	g, err := s.generator(ctx, req.ModelKey())
	if err != nil {
		return "", err
	}

	out, err := g.Generate(ctx, req.Text)
	if err != nil {
		return "", fmt.Errorf("failed to translate: %w", err)
	}
	return nonEmpty(out)
}

func (s *Service) analyzeSentiment(ctx context.Context, req *parser.Request) (string, error) {
	c, err := s.classifier(ctx, req.ModelKey())
	if err != nil {
		return "", err
	}

	res, err := c.Classify(ctx, req.Text)
	if err != nil {
		return "", fmt.Errorf("failed to classify: %w", err)
	}
	if res.Label == "" {
		return "", errEmptyOutput
	}

	explanation := sentimentExplainNegative
	if res.Label == inference.LabelPositive {
		explanation = sentimentExplainPositive
	}

	return fmt.Sprintf("Sentiment Analysis Result:\n\nSentiment: %s\nConfidence: %.2f%%\n\n%s",
		res.Label, res.Confidence*100, explanation), nil
}

func (s *Service) summarize(ctx context.Context, req *parser.Request) (string, error) {
	g, err := s.generator(ctx, req.ModelKey())
	if err != nil {
		return "", err
	}

	out, err := g.Generate(ctx, summarizationPromptPrefix+req.Text)
	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}
	summary, err := nonEmpty(out)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Summary:\n\n%s\n\nOriginal Text Length: %d words\nSummary Length: %d words\n",
		summary, len(strings.Fields(req.Text)), len(strings.Fields(summary))), nil
}

func (s *Service) writeCoverLetter(ctx context.Context, req *parser.Request) (string, error) {
	g, err := s.generator(ctx, req.ModelKey())
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Write a professional cover letter for the job described below.\n\nResume:\n%s\n\nJob Description:\n%s\n\n%s",
		req.Resume, req.JobDescription, coverLetterMarker)
	out, err := g.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to write cover letter: %w", err)
	}
	letter, err := nonEmpty(afterLast(out, coverLetterMarker))
	if err != nil {
		return "", err
	}
	return coverLetterHeading + "\n\n" + letter, nil
}

// fallbackMessage is the text recorded for a failed interaction.
func fallbackMessage(req *parser.Request, cause error) string {
	switch req.Capability {
	case domain.CapabilityChatbot:
		return fallbackChatbot
	case domain.CapabilityTranslation:
		var loadErr *pool.LoadError
		if errors.As(cause, &loadErr) && !inference.Retryable(loadErr) {
			return fmt.Sprintf(fallbackTranslationPair, req.SourceLang, req.TargetLang)
		}
		return fallbackTranslation
	case domain.CapabilitySentiment:
		return fallbackSentiment
	case domain.CapabilitySummarization:
		return fallbackSummarization
	case domain.CapabilityJobApplication:
		return fallbackJobApplication
	}
	return fallbackUnknownCapability
}

func afterLast(s, marker string) string {
	if i := strings.LastIndex(s, marker); i >= 0 {
		return s[i+len(marker):]
	}
	return s
}

func nonEmpty(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errEmptyOutput
	}
	return s, nil
}
