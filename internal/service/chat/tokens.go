package chat

import (
	"context"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/filepilot/internal/core"
	"github.com/sandevgo/filepilot/pkg/log"
)

// historyTrimmer keeps the transcript under a token budget, dropping the
// oldest messages first. cl100k_base is close enough for every provider
// we talk to; exact counts do not matter, only a stable bound.
type historyTrimmer struct {
	budget int
	enc    *tiktoken.Tiktoken
}

func newHistoryTrimmer(budget int) *historyTrimmer {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		// Fall back to a character estimate.
		enc = nil
	}
	return &historyTrimmer{budget: budget, enc: enc}
}

func (t *historyTrimmer) tokens(s string) int {
	if t.enc == nil {
		return len(s)/4 + 1
	}
	return len(t.enc.Encode(s, nil, nil))
}

// Trim returns the newest suffix of history that fits the budget. A
// non-positive budget disables trimming.
func (t *historyTrimmer) Trim(ctx context.Context, history []core.ChatMessage) []core.ChatMessage {
	if t.budget <= 0 || len(history) == 0 {
		return history
	}

	total := 0
	cut := 0
	for i := len(history) - 1; i >= 0; i-- {
		total += t.tokens(history[i].Content)
		if total > t.budget {
			cut = i + 1
			break
		}
	}

	if cut > 0 {
		log.FromCtx(ctx).Debug().
			Int("dropped", cut).
			Int("kept", len(history)-cut).
			Msg("trimmed history to token budget")
	}
	return history[cut:]
}
