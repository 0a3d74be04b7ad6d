package summary

import (
	"context"
	"fmt"
	"time"
)

// History is the slice of the platform API the fetcher needs: one page of
// channel messages, newest first, strictly before the cursor id. An empty
// beforeID means "from the most recent message".
type History interface {
	Page(ctx context.Context, channelID, beforeID string, limit int) ([]Message, error)
}

// pager walks channel history backward one page at a time. It is a lazy,
// finite, non-restartable sequence: each next call uses the previous page's
// oldest id as the exclusive upper cursor.
type pager struct {
	history   History
	channelID string
	limit     int
	cursor    string
	done      bool
}

// next returns the next raw page, or nil when history is exhausted.
func (p *pager) next(ctx context.Context) ([]Message, error) {
	if p.done {
		return nil, nil
	}
	page, err := p.history.Page(ctx, p.channelID, p.cursor, p.limit)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		p.done = true
		return nil, nil
	}
	p.cursor = page[len(page)-1].ID
	return page, nil
}

// Fetcher assembles the token-budgeted message window for a summary request.
type Fetcher struct {
	history  History
	est      TokenEstimator
	budget   int
	pageSize int
	now      func() time.Time
}

func NewFetcher(history History, est TokenEstimator, budget, pageSize int) *Fetcher {
	return &Fetcher{
		history:  history,
		est:      est,
		budget:   budget,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// SetNow overrides the clock (for testing).
func (f *Fetcher) SetNow(now func() time.Time) {
	f.now = now
}

// FetchWindow pages backward from the most recent message, drops bot-authored
// and out-of-window messages, and accepts records in fetch order until the
// first one that would push the running token total past the budget. That
// first rejection ends the whole fetch: the result is exactly the longest
// affordable prefix, reversed to oldest-first before returning.
//
// A channel with no qualifying messages yields an empty slice and a nil
// error; only a failed page fetch returns an error.
func (f *Fetcher) FetchWindow(ctx context.Context, channelID string, hours int) ([]Record, error) {
	since := f.now().Add(-time.Duration(hours) * time.Hour)

	p := &pager{history: f.history, channelID: channelID, limit: f.pageSize}

	var records []Record
	total := 0

	for {
		page, err := p.next(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch history page: %w", err)
		}
		if page == nil {
			break
		}

		kept := page[:0:0]
		for _, msg := range page {
			if msg.FromBot || msg.CreatedAt.Before(since) {
				continue
			}
			kept = append(kept, msg)
		}
		// A page with nothing inside the window means the window boundary
		// was crossed (or only bot traffic remains); stop paging.
		if len(kept) == 0 {
			break
		}

		hitWall := false
		for _, msg := range kept {
			rec := newRecord(msg)
			cost := f.est.Estimate(rec)
			if total+cost > f.budget {
				hitWall = true
				break
			}
			records = append(records, rec)
			total += cost
		}
		if hitWall || total >= f.budget {
			break
		}
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
