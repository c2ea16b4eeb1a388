package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/careflowhq/careflow/internal/triage/application/commands"
)

var trainUserID string

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a user's priority model now",
	Long: `Runs a training pass for one user outside the normal retraining
cadence, for support and backfill scenarios.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(trainUserID)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}

		container, err := buildContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer container.Close()

		result, err := container.TrainModel.Handle(cmd.Context(), commands.TrainModelCommand{UserID: userID})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case result.NeedsMoreData:
			fmt.Fprintf(out, "Not enough interactions to train: %d recorded, %d required\n",
				result.InteractionCount, container.Config.MinTrainingSamples)
		case result.Trained:
			fmt.Fprintf(out, "Trained model version %d from %d interactions\n",
				result.ModelVersion, result.InteractionCount)
		default:
			fmt.Fprintln(out, "Training already completed by a concurrent run")
		}
		return nil
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainUserID, "user", "", "user ID to train (required)")
	_ = trainCmd.MarkFlagRequired("user")
}
