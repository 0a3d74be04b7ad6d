package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rcron "github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/stellarlinkco/recap/internal/bot"
	"github.com/stellarlinkco/recap/internal/config"
	"github.com/stellarlinkco/recap/internal/llm"
	"github.com/stellarlinkco/recap/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "recap",
	Short: "recap - Discord channel summary bot",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot (gateway, summary pipeline, cache sweep)",
	RunE:  runServe,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the slash commands with Discord",
	RunE:  runRegister,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Write a default config file for editing",
	RunE:  runOnboard,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := store.Open(cfg.Summary.DBPath)
	if err != nil {
		return fmt.Errorf("open summary store: %w", err)
	}
	defer st.Close()

	// Startup sweep, then hourly re-runs. The purge is idempotent so the
	// schedule only bounds the table between restarts.
	purge := func() {
		n, err := st.PurgeExpired(time.Now())
		if err != nil {
			log.Printf("[store] purge failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[store] purged %d expired summaries", n)
		}
	}
	purge()

	sweeper := rcron.New()
	if _, err := sweeper.AddFunc("@hourly", purge); err != nil {
		return fmt.Errorf("schedule purge: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	client := llm.NewClient(cfg.Provider)

	b, err := bot.New(cfg, st, client)
	if err != nil {
		return err
	}
	if err := b.Start(); err != nil {
		return err
	}
	defer b.Stop()

	log.Printf("[recap] serving summaries for channel %s (max %dh, budget %d tokens)",
		cfg.Discord.SummaryChannelID, cfg.Summary.MaxHours, cfg.Summary.MaxTokens)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Printf("[recap] shutting down")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	return bot.RegisterCommands(cfg.Discord)
}

func runOnboard(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(config.ConfigPath()); err == nil {
		fmt.Printf("config already exists at %s\n", config.ConfigPath())
		return nil
	}
	if err := config.SaveConfig(config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", config.ConfigPath())
	fmt.Println("fill in the discord token, application id, summary channel id and provider api key")
	return nil
}

func main() {
	// Matches the original deployment habit of a .env next to the binary;
	// absence is fine.
	_ = godotenv.Load()

	rootCmd.AddCommand(serveCmd, registerCmd, onboardCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
