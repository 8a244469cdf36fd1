package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tiago918/app-chamadas/pkg/event"
)

var (
	trainConfig  string
	trainMessage string
	trainSpam    bool
	trainHam     bool
)

var trainCmd = &cobra.Command{
	Use:   "train [sender]",
	Short: "Train the model with user feedback",
	Long: `Feed one user verdict into the online model. Exactly one of --spam or
--ham must be given. The updated model is persisted to the configured
backend and cached results for the sender are invalidated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if trainSpam == trainHam {
			return fmt.Errorf("exactly one of --spam or --ham must be specified")
		}
		sender := args[0]

		det, _, err := buildDetector(trainConfig)
		if err != nil {
			return err
		}

		var ev event.Event
		if trainMessage != "" {
			ev = event.NewSMS(sender, trainMessage, time.Now(), event.MessageReceived)
		} else {
			ev = event.NewCall(sender, "", time.Now(), 0, event.CallIncoming)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := det.TrainFeedback(ctx, ev, trainSpam); err != nil {
			return fmt.Errorf("training failed: %v", err)
		}

		info := det.Stats().Model
		verdict := "ham"
		if trainSpam {
			verdict = "spam"
		}
		fmt.Printf("✅ Trained %s as %s\n", sender, verdict)
		fmt.Printf("📊 Model: %d samples, %d features, accuracy %.1f%%\n",
			info.Samples, info.FeatureCount, info.Accuracy*100)
		return nil
	},
}

func init() {
	trainCmd.Flags().StringVarP(&trainConfig, "config", "c", "", "Configuration file path")
	trainCmd.Flags().StringVarP(&trainMessage, "message", "m", "", "Message body (trains on an SMS instead of a call)")
	trainCmd.Flags().BoolVar(&trainSpam, "spam", false, "Mark the event as spam")
	trainCmd.Flags().BoolVar(&trainHam, "ham", false, "Mark the event as legitimate")
}
