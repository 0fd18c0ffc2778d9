package cmd

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/logger"
	"github.com/ovoronin/hireloop/internal/secrets"
	"github.com/ovoronin/hireloop/internal/store"
)

const (
	app = "hireloop"
)

type Config struct {
	Database      *DatabaseConfig      `mapstructure:"database"`
	Telegram      *TelegramConfig      `mapstructure:"telegram"`
	Redis         *RedisConfig         `mapstructure:"redis"`
	Questionnaire *QuestionnaireConfig `mapstructure:"questionnaire"`
	AI            *AIConfig            `mapstructure:"ai"`
	Scraper       *ScraperConfig       `mapstructure:"scraper"`
	HRChatID      int64                `mapstructure:"hr-chat-id"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	DSNFile      string `mapstructure:"dsn-file"`
	MaxOpenConns int    `mapstructure:"max-open-conns"`
	MaxIdleConns int    `mapstructure:"max-idle-conns"`
}

type TelegramConfig struct {
	Token      string        `mapstructure:"token"`
	TokenFile  string        `mapstructure:"token-file"`
	RateLimit  int           `mapstructure:"rate-limit"`
	RateWindow time.Duration `mapstructure:"rate-window"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type QuestionnaireConfig struct {
	ReviewPageSize         int           `mapstructure:"review-page-size"`
	Retention              time.Duration `mapstructure:"retention"`
	ReminderDelay          time.Duration `mapstructure:"reminder-delay"`
	SweepInterval          time.Duration `mapstructure:"sweep-interval"`
	InactivityThreshold    time.Duration `mapstructure:"inactivity-threshold"`
	CaseInsensitiveChoices bool          `mapstructure:"case-insensitive-choices"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ScraperConfig struct {
	HHUID   string `mapstructure:"hhuid"`
	HHToken string `mapstructure:"hhtoken"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hireloop screens job candidates with a questionnaire bot and LLM scoring",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("telegram.token-file", "TELEGRAM_TOKEN_FILE"); err != nil {
		log.Fatalf("binding TELEGRAM_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("database.dsn", "DATABASE_DSN"); err != nil {
		log.Fatalf("binding DATABASE_DSN environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("scraper.hhuid", "HH_UID"); err != nil {
		log.Fatalf("binding HH_UID environment variable: %v", err)
	}
	if err := viper.BindEnv("scraper.hhtoken", "HH_TOKEN"); err != nil {
		log.Fatalf("binding HH_TOKEN environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hireloop.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing config file is fine: flags and environment variables may be
	// enough for the invoked command.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

// openStore resolves the database settings from the config and opens the
// store. Shared by every command that touches the database.
func openStore(ctx context.Context, config *Config) (*store.Store, error) {
	if config == nil || config.Database == nil {
		return nil, errors.New("database configuration is required")
	}

	dsn, err := secrets.Load(secrets.Source{
		Name:  "database dsn",
		Value: config.Database.DSN,
		File:  config.Database.DSNFile,
	})
	if err != nil {
		return nil, err
	}

	return store.Open(ctx, store.Config{
		Driver:       config.Database.Driver,
		DSN:          dsn,
		MaxOpenConns: config.Database.MaxOpenConns,
		MaxIdleConns: config.Database.MaxIdleConns,
	})
}
