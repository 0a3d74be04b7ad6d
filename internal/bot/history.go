package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/stellarlinkco/recap/internal/summary"
)

// history adapts the gateway's message history into the fetcher's view of a
// channel page.
type history struct {
	api API
}

func (h *history) Page(ctx context.Context, channelID, beforeID string, limit int) ([]summary.Message, error) {
	msgs, err := h.api.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("channel messages: %w", err)
	}

	out := make([]summary.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, summary.Message{
			ID:             m.ID,
			Sender:         senderName(m),
			Content:        m.Content,
			ReplyToID:      referencedID(m),
			HasAttachments: len(m.Attachments) > 0,
			FromBot:        m.Author != nil && m.Author.Bot,
			CreatedAt:      m.Timestamp,
		})
	}
	return out, nil
}

// senderName prefers the guild nickname and falls back to the account name.
func senderName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author != nil {
		return m.Author.Username
	}
	return ""
}

func referencedID(m *discordgo.Message) string {
	if m.MessageReference != nil {
		return m.MessageReference.MessageID
	}
	return ""
}
