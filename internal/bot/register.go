package bot

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/stellarlinkco/recap/internal/config"
)

// SummaryCommand is the slash command definition registered with the
// platform. hours is optional; the default of 1 is applied by the handler.
func SummaryCommand() *discordgo.ApplicationCommand {
	minHours := float64(1)
	return &discordgo.ApplicationCommand{
		Name:        "summary",
		Description: "Get a summary of the last N hours of messages.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "hours",
				Description: "Number of hours to summarize",
				Required:    false,
				MinValue:    &minHours,
			},
		},
	}
}

// RegisterCommands overwrites the application's command set for the
// configured guild (or globally when no guild is set).
func RegisterCommands(cfg config.DiscordConfig) error {
	if cfg.Token == "" {
		return fmt.Errorf("discord token is required")
	}
	if cfg.AppID == "" {
		return fmt.Errorf("discord application id is required")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}

	commands := []*discordgo.ApplicationCommand{SummaryCommand()}
	if _, err := session.ApplicationCommandBulkOverwrite(cfg.AppID, cfg.GuildID, commands); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	log.Printf("[bot] registered %d command(s)", len(commands))
	return nil
}
