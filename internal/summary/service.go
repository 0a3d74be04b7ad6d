package summary

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/stellarlinkco/recap/internal/ratelimit"
)

// ErrorText is the literal string delivered to the requester when the model
// call fails. It is never cached.
const ErrorText = "Error generating summary."

type Status int

const (
	StatusRateLimited Status = iota
	StatusNoMessages
	StatusSummary
)

// Outcome is the result of one summary request.
type Outcome struct {
	Status    Status
	Text      string
	FromCache bool
	Wait      ratelimit.Remaining
}

// WindowFetcher assembles the token-budgeted message window.
type WindowFetcher interface {
	FetchWindow(ctx context.Context, channelID string, hours int) ([]Record, error)
}

// Cache is the summary store contract the orchestrator needs.
type Cache interface {
	Lookup(channelID string, hours int, now time.Time) (string, bool, error)
	Save(channelID string, hours int, summary string, now time.Time) error
}

// Summarizer produces a digest from the serialized message window.
type Summarizer interface {
	Summarize(ctx context.Context, payload string) (string, error)
}

// Service runs the summary pipeline: rate limit, cache, window fetch, model
// call, cache write. Each request runs its stages strictly in sequence; two
// concurrent requests for the same channel and window may both reach the
// model and both write a cache row.
type Service struct {
	fetcher WindowFetcher
	cache   Cache
	model   Summarizer
	limiter *ratelimit.Limiter
	now     func() time.Time
}

func NewService(fetcher WindowFetcher, cache Cache, model Summarizer, limiter *ratelimit.Limiter) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		model:   model,
		limiter: limiter,
		now:     time.Now,
	}
}

// SetNow overrides the clock (for testing).
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Summarize handles one request. The rate-limit timestamp is written on
// admission, before any expensive stage, so a rejected follow-up burst costs
// nothing. Only genuine model completions are persisted.
func (s *Service) Summarize(ctx context.Context, channelID, requesterID string, hours int) Outcome {
	ok, wait := s.limiter.TryAcquire(requesterID)
	if !ok {
		return Outcome{Status: StatusRateLimited, Wait: wait}
	}

	cached, hit, err := s.cache.Lookup(channelID, hours, s.now())
	if err != nil {
		log.Printf("[summary] cache lookup for channel %s failed: %v", channelID, err)
	}
	if hit {
		return Outcome{Status: StatusSummary, Text: cached, FromCache: true}
	}

	records, err := s.fetcher.FetchWindow(ctx, channelID, hours)
	if err != nil {
		// Surfaced to the requester the same as an empty window, but kept
		// distinguishable here for diagnosis.
		log.Printf("[summary] window fetch for channel %s failed: %v", channelID, err)
		return Outcome{Status: StatusNoMessages}
	}
	if len(records) == 0 {
		return Outcome{Status: StatusNoMessages}
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		log.Printf("[summary] marshal window for channel %s failed: %v", channelID, err)
		return Outcome{Status: StatusSummary, Text: ErrorText}
	}

	text, err := s.model.Summarize(ctx, string(payload))
	if err != nil {
		log.Printf("[summary] model call for channel %s failed: %v", channelID, err)
		return Outcome{Status: StatusSummary, Text: ErrorText}
	}

	if err := s.cache.Save(channelID, hours, text, s.now()); err != nil {
		log.Printf("[summary] cache save for channel %s failed: %v", channelID, err)
	}

	return Outcome{Status: StatusSummary, Text: text}
}
