package summary

import (
	"encoding/json"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator prices a record for the budget check. The same estimator must
// be used for every record in a fetch so the running total stays consistent.
type TokenEstimator interface {
	Estimate(rec Record) int
}

// Estimator counts tokens of a record's compact JSON serialization, which is
// the shape that crosses the model boundary.
type Estimator struct {
	enc *tiktoken.Tiktoken
}

func NewEstimator(model string) (*Estimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Unknown model names fall back to the cl100k_base encoding; the
		// budget only needs a consistent proxy, not vendor parity.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load tokenizer: %w", err)
		}
	}
	return &Estimator{enc: enc}, nil
}

func (e *Estimator) Estimate(rec Record) int {
	data, err := json.Marshal(rec)
	if err != nil {
		return 0
	}
	return len(e.enc.Encode(string(data), nil, nil))
}
