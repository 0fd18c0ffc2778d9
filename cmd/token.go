package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovoronin/hireloop/internal/screening"
)

var tokenCmd = &cobra.Command{
	Use:   "token <candidate-id>",
	Short: "Issue a one-time registration token for a candidate",
	Long: "Issue a one-time registration token for a candidate. The candidate sends " +
		"'/start <token>' to the bot to link their chat. With --name a new candidate " +
		"is created first and its id is printed alongside the token.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

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

		name, _ := cmd.Flags().GetString("name")

		var candidateID string
		switch {
		case name != "":
			candidate := &screening.Candidate{FullName: name}
			if err := st.CreateCandidate(ctx, candidate); err != nil {
				logger.Fatal("creating a candidate", zap.Error(err))
			}
			candidateID = candidate.ID
			fmt.Printf("candidate: %s\n", candidateID)
		case len(args) == 1:
			candidateID = args[0]
			if _, err := st.CandidateByID(ctx, candidateID); err != nil {
				logger.Fatal("looking up the candidate", zap.String("candidate_id", candidateID), zap.Error(err))
			}
		default:
			logger.Fatal("either a candidate id argument or --name is required")
		}

		token, err := st.CreateToken(ctx, candidateID)
		if err != nil {
			logger.Fatal("creating a token", zap.Error(err))
		}

		fmt.Printf("token: %s\n", token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("name", "", "create a new candidate with this full name")
}
