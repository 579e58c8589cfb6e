package cmd

import (
	stdErrors "errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/ratingsync/internal/config"
	"github.com/lepinkainen/ratingsync/internal/errors"
)

// CLI represents the complete command structure for the ratingsync application
type CLI struct {
	// Global flags
	Debug  bool   `help:"Enable debug logging"`
	Config string `help:"Path to config file (defaults to ./config.yaml)" type:"path"`
	Year   string `help:"Target release year; the previous year is also accepted" env:"TARGET_YEAR"`

	Run    RunCmd    `cmd:"" help:"Fetch ratings for every title in a CSV file"`
	Lookup LookupCmd `cmd:"" help:"Fetch ratings for a single title"`
	Cache  CacheCmd  `cmd:"" help:"Manage the persistent response cache"`
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("ratingsync"),
		kong.Description("Collect anime ratings from Bangumi, AniList, MyAnimeList and Filmarks."),
		kong.UsageOnError(),
	)

	initLogging(cli.Debug)
	if err := initConfig(viper.GetViper(), cli.Config); err != nil {
		slog.Error("Fatal error config file", "error", err)
		os.Exit(1)
	}
	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		var stopErr *errors.StopProcessingError
		if stdErrors.As(err, &stopErr) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func initConfig(v *viper.Viper, configFile string) error {
	config.SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if stdErrors.As(err, &notFound) {
			slog.Debug("Config file not found, using defaults and environment")
			return nil
		}
		return err
	}
	slog.Debug("Using config file", "path", v.ConfigFileUsed())
	return nil
}

func updateGlobalConfig(cli *CLI) {
	if cli.Year != "" {
		viper.Set("target_year", cli.Year)
	}
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
