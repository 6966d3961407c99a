package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Source types the model is asked to use.
const (
	SourceGovernment = "government"
	SourceNews       = "news"
	SourceResearch   = "research"
	SourceListing    = "listing/MLS"
	SourceCompany    = "company"
	SourceInternal   = "CBRE_internal"
	SourceOther      = "other"
)

// Source is one citation backing an answer.
type Source struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	PublishedAt string `json:"published_at,omitempty"`
	Type        string `json:"type"`
}

// TrustBreakdown explains how the confidence score came about.
type TrustBreakdown struct {
	InternalUsed  bool   `json:"internal_used"`
	ExternalCount int    `json:"external_count"`
	FreshnessDays int    `json:"freshness_days"`
	Agreements    string `json:"agreements"`
	Conflicts     string `json:"conflicts"`
	Missing       string `json:"missing"`
}

// Response is the answer contract returned to clients.
type Response struct {
	Answer         string          `json:"answer"`
	Confidence     int             `json:"confidence"`
	Sources        []Source        `json:"sources"`
	TrustBreakdown *TrustBreakdown `json:"trust_breakdown,omitempty"`
}

// wireResponse mirrors Response with optional fields so missing keys can be told
// apart from zero values.
type wireResponse struct {
	Answer         string          `json:"answer"`
	Confidence     *float64        `json:"confidence"`
	Sources        []Source        `json:"sources"`
	TrustBreakdown *TrustBreakdown `json:"trust_breakdown"`
}

var errMalformed = errors.New("assistant: malformed model response")

// ParseResponse decodes the model output, tolerating a surrounding markdown
// code fence. It requires answer, sources and confidence; confidence is
// rounded and clamped to 0..100.
func ParseResponse(raw string) (Response, error) {
	text := stripFence(raw)

	var w wireResponse
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return Response{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if strings.TrimSpace(w.Answer) == "" || w.Sources == nil || w.Confidence == nil {
		return Response{}, fmt.Errorf("%w: missing answer, sources or confidence", errMalformed)
	}

	c := *w.Confidence
	if math.IsNaN(c) {
		c = 0
	}
	return Response{
		Answer:         w.Answer,
		Confidence:     int(math.Round(math.Max(0, math.Min(100, c)))),
		Sources:        w.Sources,
		TrustBreakdown: w.TrustBreakdown,
	}, nil
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

const (
	emptyAnswer = "I couldn't generate a proper response. Please try rephrasing your question."
	errorAnswer = "Sorry, I encountered an error processing your request. Please verify your API key is correct and try again."
)

// parseFallback wraps unstructured model text so the client still gets an answer.
func parseFallback(raw string) Response {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		answer = emptyAnswer
	}
	return Response{
		Answer:     answer,
		Confidence: 50,
		Sources: []Source{{
			Name:    "CBRE Internal Database",
			URL:     "#",
			Snippet: "Property listings and market data",
			Type:    SourceInternal,
		}},
		TrustBreakdown: &TrustBreakdown{
			InternalUsed:  true,
			FreshnessDays: 7,
			Agreements:    "Limited data sources",
			Missing:       "Unable to fully process request",
		},
	}
}

// errorFallback replaces an upstream failure with a fixed apology.
func errorFallback(err error) Response {
	msg := "Unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Response{
		Answer:     errorAnswer,
		Confidence: 0,
		Sources: []Source{{
			Name:    "Error",
			URL:     "#",
			Snippet: msg,
			Type:    SourceOther,
		}},
		TrustBreakdown: &TrustBreakdown{
			Missing: "API request failed",
		},
	}
}
