package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/careflowhq/careflow/internal/triage/application/queries"
)

var modelUserID string

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect a user's priority model",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(modelUserID)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}

		container, err := buildContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer container.Close()

		info, err := container.ModelInfo.Handle(cmd.Context(), queries.ModelInfoQuery{UserID: userID})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Interactions recorded: %d\n", info.InteractionCount)
		if !info.ModelExists {
			fmt.Fprintln(out, "No model trained yet")
			if info.NeedsMoreData {
				fmt.Fprintf(out, "Needs %d interactions before first training\n",
					container.Config.MinTrainingSamples)
			}
			return nil
		}

		fmt.Fprintf(out, "Active model version: %d\n", info.ModelVersion)
		if info.ModelCreatedAt != nil {
			fmt.Fprintf(out, "Trained at: %s\n", info.ModelCreatedAt.Format(time.RFC3339))
		}
		if info.Accuracy != nil {
			fmt.Fprintf(out, "Accuracy: %.3f\n", *info.Accuracy)
		}

		versions, err := container.ModelRepo.ListVersionsByUser(cmd.Context(), userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Stored versions: %d\n", len(versions))
		return nil
	},
}

func init() {
	modelCmd.Flags().StringVar(&modelUserID, "user", "", "user ID to inspect (required)")
	_ = modelCmd.MarkFlagRequired("user")
}
