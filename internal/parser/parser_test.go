package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "word"
	}
	return strings.Join(w, " ")
}

func guidanceReason(t *testing.T, err error) string {
	t.Helper()
	var g *GuidanceError
	require.True(t, errors.As(err, &g), "expected guidance error, got %v", err)
	return g.Reason
}

func TestParseJobApplication(t *testing.T) {
	t.Run("labeled sections", func(t *testing.T) {
		req, err := Parse(domain.CapabilityJobApplication, "resume: A\n\njob description: B")
		require.NoError(t, err)
		assert.Equal(t, "A", req.Resume)
		assert.Equal(t, "B", req.JobDescription)
	})

	t.Run("labels are case-insensitive", func(t *testing.T) {
		req, err := Parse(domain.CapabilityJobApplication, "Resume: Go developer, 5 years\nJob Description: Backend engineer")
		require.NoError(t, err)
		assert.Equal(t, "Go developer, 5 years", req.Resume)
		assert.Equal(t, "Backend engineer", req.JobDescription)
	})

	t.Run("paragraph fallback", func(t *testing.T) {
		req, err := Parse(domain.CapabilityJobApplication, "Paragraph1\n\nParagraph2")
		require.NoError(t, err)
		assert.Equal(t, "Paragraph1", req.Resume)
		assert.Equal(t, "Paragraph2", req.JobDescription)
	})

	t.Run("crlf paragraphs", func(t *testing.T) {
		req, err := Parse(domain.CapabilityJobApplication, "Paragraph1\r\n\r\nParagraph2")
		require.NoError(t, err)
		assert.Equal(t, "Paragraph1", req.Resume)
		assert.Equal(t, "Paragraph2", req.JobDescription)
	})

	t.Run("missing job description", func(t *testing.T) {
		_, err := Parse(domain.CapabilityJobApplication, "resume: A")
		assert.Equal(t, ReasonMissingJobDescription, guidanceReason(t, err))
	})

	t.Run("missing both reports resume first", func(t *testing.T) {
		_, err := Parse(domain.CapabilityJobApplication, "hire me")
		assert.Equal(t, ReasonMissingResume, guidanceReason(t, err))
	})

	t.Run("model key", func(t *testing.T) {
		req, err := Parse(domain.CapabilityJobApplication, "resume: A\njob description: B")
		require.NoError(t, err)
		assert.Equal(t, domain.CapabilityKey(domain.CapabilityJobApplication), req.ModelKey())
	})
}

func TestParseTranslation(t *testing.T) {
	t.Run("directive", func(t *testing.T) {
		req, err := Parse(domain.CapabilityTranslation, "Translate from French to English: Bonjour")
		require.NoError(t, err)
		assert.Equal(t, "fr", req.SourceLang)
		assert.Equal(t, "en", req.TargetLang)
		assert.Equal(t, "Bonjour", req.Text)
		assert.Equal(t, domain.TranslationKey("fr", "en"), req.ModelKey())
	})

	t.Run("no directive defaults to en-es", func(t *testing.T) {
		req, err := Parse(domain.CapabilityTranslation, "Bonjour tout le monde")
		require.NoError(t, err)
		assert.Equal(t, "en", req.SourceLang)
		assert.Equal(t, "es", req.TargetLang)
		assert.Equal(t, "Bonjour tout le monde", req.Text)
	})

	t.Run("unknown language passes through", func(t *testing.T) {
		req, err := Parse(domain.CapabilityTranslation, "translate from english to Klingon text here")
		require.NoError(t, err)
		assert.Equal(t, "en", req.SourceLang)
		assert.Equal(t, "klingon", req.TargetLang)
		assert.Equal(t, "text here", req.Text)
	})

	t.Run("directive without text", func(t *testing.T) {
		_, err := Parse(domain.CapabilityTranslation, "translate from english to german:")
		assert.Equal(t, ReasonEmptyQuery, guidanceReason(t, err))
	})
}

func TestParseSummarization(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := Parse(domain.CapabilitySummarization, words(20))
		assert.Equal(t, ReasonTooShort, guidanceReason(t, err))
	})

	t.Run("prefix stripped and long enough", func(t *testing.T) {
		req, err := Parse(domain.CapabilitySummarization, "Summarize: "+words(35))
		require.NoError(t, err)
		assert.Equal(t, words(35), req.Text)
	})

	t.Run("prefix does not count toward length", func(t *testing.T) {
		_, err := Parse(domain.CapabilitySummarization, "please summarize: "+words(29))
		assert.Equal(t, ReasonTooShort, guidanceReason(t, err))
	})

	t.Run("longer prefixes", func(t *testing.T) {
		for _, prefix := range []string{"Summarize this text: ", "SUMMARIZE THE FOLLOWING:\n"} {
			req, err := Parse(domain.CapabilitySummarization, prefix+words(30))
			require.NoError(t, err)
			assert.Equal(t, words(30), req.Text)
		}
	})
}

func TestParseRawCapabilities(t *testing.T) {
	for _, c := range []domain.Capability{domain.CapabilityChatbot, domain.CapabilitySentiment} {
		req, err := Parse(c, "I love this product")
		require.NoError(t, err)
		assert.Equal(t, "I love this product", req.Text)
		assert.Equal(t, domain.CapabilityKey(c), req.ModelKey())
	}
}

func TestParseEmptyQuery(t *testing.T) {
	_, err := Parse(domain.CapabilityChatbot, "   \n ")
	assert.Equal(t, ReasonEmptyQuery, guidanceReason(t, err))
}

func TestParseUnknownCapability(t *testing.T) {
	_, err := Parse(domain.Capability("vision"), "hello")
	require.Error(t, err)
	var g *GuidanceError
	assert.False(t, errors.As(err, &g))
}

func TestResolveLanguage(t *testing.T) {
	assert.Equal(t, "fr", ResolveLanguage("French"))
	assert.Equal(t, "vi", ResolveLanguage("vietnamese"))
	assert.Equal(t, "xx", ResolveLanguage("XX"))
}
