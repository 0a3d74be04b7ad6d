package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stellarlinkco/recap/internal/llm"
	"github.com/stellarlinkco/recap/internal/summary"
)

func (b *Bot) handleInteraction(i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.ApplicationCommandData().Name == "summary" {
		b.handleSummary(i)
	}
}

func (b *Bot) handleSummary(i *discordgo.InteractionCreate) {
	if i.ChannelID != b.cfg.SummaryChannelID {
		b.respondEphemeral(i, "This command can only be used in the designated summary channel.")
		return
	}

	hours := 1
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "hours" {
			hours = int(opt.IntValue())
		}
	}
	if hours < 1 {
		hours = 1
	}
	if hours > b.maxHours {
		b.respondEphemeral(i, fmt.Sprintf("You can only summarize up to %d hours.", b.maxHours))
		return
	}

	err := b.api.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Printf("[bot] defer summary reply failed: %v", err)
		return
	}

	outcome := b.svc.Summarize(context.Background(), i.ChannelID, requesterID(i), hours)

	switch outcome.Status {
	case summary.StatusRateLimited:
		b.followUpEphemeral(i, fmt.Sprintf(
			"You can use this command again in %d hour(s) %d minute(s).",
			outcome.Wait.Hours, outcome.Wait.Minutes,
		))
	case summary.StatusNoMessages:
		b.followUp(i, &discordgo.WebhookParams{
			Content: "No messages found in the given time frame.",
		})
	case summary.StatusSummary:
		b.followUp(i, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{{
				Description: outcome.Text,
				Color:       embedColor,
			}},
		})
	}
}

func (b *Bot) handleMessage(m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	kind, text, ok := parseTrigger(m.Content)
	if !ok {
		return
	}

	if text != "" {
		b.handleInlineQuery(m, kind, text)
		return
	}
	b.handleRepliedQuery(m, kind)
}

// parseTrigger matches the prefix commands. With an argument any of the four
// kinds apply; bare triggers (operating on the replied-to message) exclude
// !answer, which needs a question of its own.
func parseTrigger(content string) (llm.QueryKind, string, bool) {
	triggers := []struct {
		prefix string
		kind   llm.QueryKind
	}{
		{"!define", llm.QueryDefine},
		{"!answer", llm.QueryAnswer},
		{"!translate", llm.QueryTranslate},
		{"!explain", llm.QueryExplain},
	}
	for _, t := range triggers {
		if strings.HasPrefix(content, t.prefix+" ") {
			return t.kind, strings.TrimSpace(content[len(t.prefix)+1:]), true
		}
		if content == t.prefix && t.kind != llm.QueryAnswer {
			return t.kind, "", true
		}
	}
	return "", "", false
}

func (b *Bot) handleInlineQuery(m *discordgo.Message, kind llm.QueryKind, text string) {
	answer, err := b.queries.Query(context.Background(), kind, text)
	if err != nil {
		log.Printf("[bot] %s query failed: %v", kind, err)
		answer = "Error calling the model."
	}

	embed := queryEmbed(kind, text, answer, m.Author)
	if _, err := b.api.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		log.Printf("[bot] send %s response failed: %v", kind, err)
		return
	}
	if err := b.api.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		log.Printf("[bot] delete trigger message failed: %v", err)
	}
}

func (b *Bot) handleRepliedQuery(m *discordgo.Message, kind llm.QueryKind) {
	if m.MessageReference == nil || m.MessageReference.MessageID == "" {
		b.reply(m, "Please reply to a message")
		return
	}

	replied, err := b.api.ChannelMessage(m.ChannelID, m.MessageReference.MessageID)
	if err != nil {
		b.reply(m, "Couldn't find the message.")
		return
	}

	answer, err := b.queries.Query(context.Background(), kind, replied.Content)
	if err != nil {
		log.Printf("[bot] %s query failed: %v", kind, err)
		answer = "Error calling the model."
	}

	var embed *discordgo.MessageEmbed
	switch kind {
	case llm.QueryTranslate:
		embed = queryEmbed(kind, replied.Content, answer, m.Author)
	default:
		embed = baseEmbed(queryTitle(kind, ""), answer, m.Author)
	}

	if _, err := b.api.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{embed},
		Reference:       replied.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}); err != nil {
		log.Printf("[bot] send %s response failed: %v", kind, err)
		return
	}
	if err := b.api.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		log.Printf("[bot] delete trigger message failed: %v", err)
	}
}

func queryEmbed(kind llm.QueryKind, text, answer string, requestedBy *discordgo.User) *discordgo.MessageEmbed {
	switch kind {
	case llm.QueryTranslate:
		return baseEmbed("Translation", "**Original:** "+text+"\n"+answer, requestedBy)
	case llm.QueryExplain:
		return baseEmbed("Explanation", "**"+text+"**\n"+answer, requestedBy)
	case llm.QueryAnswer:
		return baseEmbed(text, answer, requestedBy)
	default:
		return baseEmbed("Definition", answer, requestedBy)
	}
}

func queryTitle(kind llm.QueryKind, text string) string {
	switch kind {
	case llm.QueryTranslate:
		return "Translation"
	case llm.QueryExplain:
		return "Explanation"
	case llm.QueryAnswer:
		return text
	default:
		return "Definition"
	}
}

func baseEmbed(title, description string, requestedBy *discordgo.User) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       embedColor,
	}
	if requestedBy != nil {
		name := requestedBy.GlobalName
		if name == "" {
			name = requestedBy.Username
		}
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    "Requested by " + name,
			IconURL: requestedBy.AvatarURL(""),
		}
	}
	return embed
}

func (b *Bot) reply(m *discordgo.Message, content string) {
	if _, err := b.api.ChannelMessageSendReply(m.ChannelID, content, m.Reference()); err != nil {
		log.Printf("[bot] reply failed: %v", err)
	}
}

func (b *Bot) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := b.api.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[bot] ephemeral response failed: %v", err)
	}
}

func (b *Bot) followUpEphemeral(i *discordgo.InteractionCreate, content string) {
	b.followUp(i, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) followUp(i *discordgo.InteractionCreate, params *discordgo.WebhookParams) {
	if _, err := b.api.FollowupMessageCreate(i.Interaction, true, params); err != nil {
		log.Printf("[bot] follow-up failed: %v", err)
	}
}

func requesterID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
