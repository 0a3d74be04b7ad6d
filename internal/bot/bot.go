package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stellarlinkco/recap/internal/config"
	"github.com/stellarlinkco/recap/internal/llm"
	"github.com/stellarlinkco/recap/internal/ratelimit"
	"github.com/stellarlinkco/recap/internal/store"
	"github.com/stellarlinkco/recap/internal/summary"
)

const embedColor = 0x00AE86

// API is the slice of the discordgo session the handlers use. Wrapping it in
// an interface lets tests drive the handlers with a fake session.
type API interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Querier runs a single-shot transform against the model backend.
type Querier interface {
	Query(ctx context.Context, kind llm.QueryKind, text string) (string, error)
}

// SummaryService runs the summary pipeline for one request.
type SummaryService interface {
	Summarize(ctx context.Context, channelID, requesterID string, hours int) summary.Outcome
}

type Bot struct {
	cfg      config.DiscordConfig
	maxHours int

	session *discordgo.Session
	api     API
	svc     SummaryService
	queries Querier
}

// New builds the bot and its summary pipeline around a fresh gateway session.
func New(cfg *config.Config, st *store.Store, client *llm.Client) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	est, err := summary.NewEstimator(cfg.Provider.Model)
	if err != nil {
		return nil, fmt.Errorf("create estimator: %w", err)
	}

	fetcher := summary.NewFetcher(
		&history{api: session},
		est,
		cfg.Summary.MaxTokens,
		cfg.Summary.PageSize,
	)
	limiter := ratelimit.New(time.Duration(cfg.Summary.RateLimitHours) * time.Hour)
	svc := summary.NewService(fetcher, st, client, limiter)

	return &Bot{
		cfg:      cfg.Discord,
		maxHours: cfg.Summary.MaxHours,
		session:  session,
		api:      session,
		svc:      svc,
		queries:  client,
	}, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(i)
	})
	b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(m.Message)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	if b.session.State != nil && b.session.State.User != nil {
		log.Printf("[bot] logged in as %s", b.session.State.User.Username)
	}
	return nil
}

func (b *Bot) Stop() error {
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close gateway: %w", err)
	}
	log.Printf("[bot] stopped")
	return nil
}
