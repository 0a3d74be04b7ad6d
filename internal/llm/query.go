package llm

import (
	"context"
	"fmt"
)

// QueryKind selects the fixed instruction template for a single-shot
// transform. The dispatcher is stateless: no cache, no rate limit.
type QueryKind string

const (
	QueryDefine    QueryKind = "define"
	QueryTranslate QueryKind = "translate"
	QueryExplain   QueryKind = "explain"
	QueryAnswer    QueryKind = "answer"
)

const (
	definePrompt = `Define the given word or phrase in one or two short sentences.
If it is slang or an abbreviation, say so and give the expanded form.`

	translatePrompt = `Translate the given text to English.
If it is already English, translate it to Spanish.
Reply with the translation only.`

	explainPrompt = `Explain the given text in simple terms, in at most three sentences.
Assume the reader has no background knowledge.`

	answerPrompt = `Answer the given question concisely and factually.
If you are not sure, say so instead of guessing.`
)

var queryPrompts = map[QueryKind]string{
	QueryDefine:    definePrompt,
	QueryTranslate: translatePrompt,
	QueryExplain:   explainPrompt,
	QueryAnswer:    answerPrompt,
}

// Query forwards the caller-supplied text under the template for kind.
func (c *Client) Query(ctx context.Context, kind QueryKind, text string) (string, error) {
	prompt, ok := queryPrompts[kind]
	if !ok {
		return "", fmt.Errorf("unknown query kind %q", kind)
	}
	return c.Complete(ctx, prompt, text)
}
