package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/chat"
	"github.com/ovoronin/hireloop/internal/chat/telegram"
	"github.com/ovoronin/hireloop/internal/engine"
	"github.com/ovoronin/hireloop/internal/logger"
	"github.com/ovoronin/hireloop/internal/ratelimit"
	"github.com/ovoronin/hireloop/internal/reminder"
	"github.com/ovoronin/hireloop/internal/scoring"
	"github.com/ovoronin/hireloop/internal/scoring/gemini"
	"github.com/ovoronin/hireloop/internal/secrets"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the screening bot",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// senderRef breaks the construction cycle between the chat transport and the
// components that write back to chats. The transport is wired in last.
type senderRef struct {
	inner chat.Sender
}

func (s *senderRef) Send(ctx context.Context, chatID int64, out chat.Outgoing) error {
	if s.inner == nil {
		return errors.New("chat transport is not ready")
	}
	return s.inner.Send(ctx, chatID, out)
}

// run is the main command for the bot.
func run() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hireloop bot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}
	if config.Telegram == nil {
		logger.Fatal("telegram configuration is required")
	}

	botToken, err := secrets.Load(secrets.Source{
		Name:  "telegram bot token",
		Value: config.Telegram.Token,
		File:  config.Telegram.TokenFile,
	})
	if err != nil {
		logger.Fatal(
			"loading telegram bot token",
			zap.Error(err),
			zap.String("hint", "set TELEGRAM_TOKEN_FILE environment variable or the 'telegram.token-file' key in the configuration file"),
		)
	}

	st, err := openStore(ctx, config)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		logger.Fatal("applying the schema", zap.Error(err))
	}

	limiter := newLimiter(config, logger)
	scorer := newScorer(ctx, config, logger)

	sender := &senderRef{}

	qc := config.Questionnaire
	if qc == nil {
		qc = &QuestionnaireConfig{}
	}

	scheduler := reminder.New(st, sender, reminder.Config{
		Delay:               qc.ReminderDelay,
		SweepInterval:       qc.SweepInterval,
		InactivityThreshold: qc.InactivityThreshold,
	}, logger)

	dispatcher := scoring.NewDispatcher(st, scorer, sender, scoring.Config{
		HRChatID: config.HRChatID,
	}, logger)

	eng := engine.New(st, sender, dispatcher, scheduler, engine.Config{
		ReviewPageSize:         qc.ReviewPageSize,
		Retention:              qc.Retention,
		CaseInsensitiveChoices: qc.CaseInsensitiveChoices,
	}, logger)

	bot, err := telegram.New(botToken, eng, limiter, telegram.Config{
		RateLimit:  config.Telegram.RateLimit,
		RateWindow: config.Telegram.RateWindow,
	}, logger)
	if err != nil {
		logger.Fatal("creating the telegram transport", zap.Error(err))
	}
	sender.inner = bot

	errCh := make(chan error, 2)
	go func() { errCh <- bot.Run(ctx) }()
	go func() { errCh <- scheduler.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("component stopped", zap.Error(err))
		}
	}
	stop()

	// Let in-flight scoring runs land before the process exits.
	dispatcher.Wait()
	logger.Info("shutdown complete")
}

func newLimiter(config *Config, logger *zap.Logger) *ratelimit.Limiter {
	if config.Redis == nil || strings.TrimSpace(config.Redis.Addr) == "" {
		return ratelimit.New(nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	logger.Info("rate limiting enabled", zap.String("redis_addr", config.Redis.Addr))
	return ratelimit.New(client)
}

// newScorer builds the Gemini scorer when AI is enabled. Scoring failures are
// never fatal for the bot, so neither is a scorer misconfiguration.
func newScorer(ctx context.Context, config *Config, zlog *zap.Logger) scoring.Scorer {
	if config.AI == nil || !config.AI.Enabled {
		return nil
	}

	provider := strings.TrimSpace(strings.ToLower(config.AI.Provider))
	if provider != "" && provider != "gemini" {
		zlog.Warn("skipping scorer", zap.String("reason", "unsupported ai provider"), zap.String("provider", config.AI.Provider))
		return nil
	}
	if config.AI.Gemini == nil {
		zlog.Warn("skipping scorer", zap.String("reason", "gemini configuration is required when ai is enabled"))
		return nil
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.AI.Gemini.APIKey,
		File:  config.AI.Gemini.APIKeyFile,
	})
	if err != nil {
		zlog.Warn("skipping scorer", zap.Error(err), zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY_FILE"))
		return nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, config.AI.Gemini.Model)
	if err != nil {
		zlog.Warn("skipping scorer", zap.Error(err))
		return nil
	}

	scorerLogger := logger.WithCommonFields(zlog, "gemini", generator.Model())

	return gemini.NewScorer(generator, scorerLogger, config.AI.Gemini.MaxLogLength)
}
