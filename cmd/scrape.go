package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/scraper"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <resume-url> <candidate-id>",
	Short: "Scrape an hh.ru resume page into a candidate profile",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		ctx := context.Background()
		url, candidateID := args[0], args[1]

		logger, err := newLogger()
		if err != nil {
			cobra.CheckErr(err)
		}

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		st, err := openStore(ctx, config)
		if err != nil {
			logger.Fatal("opening the store", zap.Error(err))
		}
		defer st.Close()

		if _, err := st.CandidateByID(ctx, candidateID); err != nil {
			logger.Fatal("looking up the candidate", zap.String("candidate_id", candidateID), zap.Error(err))
		}

		cookies := map[string]string{}
		if config != nil && config.Scraper != nil {
			if config.Scraper.HHUID != "" {
				cookies["hhuid"] = config.Scraper.HHUID
			}
			if config.Scraper.HHToken != "" {
				cookies["hhtoken"] = config.Scraper.HHToken
			}
		}
		if len(cookies) == 0 {
			logger.Warn("no hh.ru session cookies configured, the resume page may be truncated",
				zap.String("hint", "set HH_UID and HH_TOKEN environment variables"),
			)
		}

		vacancyID, _ := cmd.Flags().GetString("vacancy")

		client := scraper.New(cookies, logger)
		data, err := client.Fetch(url, vacancyID)
		if err != nil {
			logger.Fatal("scraping the resume", zap.String("url", url), zap.Error(err))
		}

		if err := st.SaveResumeProfile(ctx, candidateID, data); err != nil {
			logger.Fatal("saving the resume profile", zap.Error(err))
		}

		logger.Info("resume profile saved", zap.String("candidate_id", candidateID))
		fmt.Println(data.Summary())
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().String("vacancy", "", "vacancy id to associate with the scraped resume")
}
