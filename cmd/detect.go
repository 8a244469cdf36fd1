package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tiago918/app-chamadas/pkg/detector"
	"github.com/tiago918/app-chamadas/pkg/event"
)

var (
	detectConfig   string
	detectMessage  string
	detectDuration int
	detectMissed   bool
	detectVerbose  bool
)

var detectCmd = &cobra.Command{
	Use:   "detect [sender]",
	Short: "Score a call or message from a sender",
	Long: `Score a single event. Without --message the event is treated as an
incoming call; with --message it is treated as a received SMS.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sender := args[0]

		det, _, err := buildDetector(detectConfig)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var result *detector.Result
		if detectMessage != "" {
			ev := event.NewSMS(sender, detectMessage, time.Now(), event.MessageReceived)
			result, err = det.DetectSMS(ctx, ev)
		} else {
			dir := event.CallIncoming
			if detectMissed {
				dir = event.CallMissed
			}
			duration := time.Duration(detectDuration) * time.Second
			ev := event.NewCall(sender, "", time.Now(), duration, dir)
			result, err = det.DetectCall(ctx, ev)
		}
		if err != nil {
			return fmt.Errorf("detection failed: %v", err)
		}

		printResult(result)
		return nil
	},
}

func printResult(result *detector.Result) {
	icon := "✅"
	switch result.Level {
	case detector.LevelSpam:
		icon = "🚫"
	case detector.LevelSuspicious:
		icon = "⚠️"
	case detector.LevelQuestionable:
		icon = "❓"
	}

	fmt.Printf("%s %s: %s (score %.2f, confidence %.2f)\n",
		icon, result.Sender, result.Level, result.Score, result.Confidence)

	if detectVerbose {
		fmt.Printf("  Signals: learned %.2f, behavior %.2f, rule %.2f\n",
			result.Signals.Learned, result.Signals.Behavior, result.Signals.Rule)
		fmt.Printf("  Weights: learned %.2f, behavior %.2f, rule %.2f\n",
			result.Weights.Learned, result.Weights.Behavior, result.Weights.Rule)
		fmt.Printf("  Elapsed: %v\n", result.Elapsed)
	}
	if len(result.Reasons) > 0 {
		fmt.Printf("  Reasons: %s\n", strings.Join(result.Reasons, ", "))
	}
	for _, rec := range result.Recommendations {
		fmt.Printf("  → %s\n", rec)
	}
}

func init() {
	detectCmd.Flags().StringVarP(&detectConfig, "config", "c", "", "Configuration file path")
	detectCmd.Flags().StringVarP(&detectMessage, "message", "m", "", "Message body (scores an SMS instead of a call)")
	detectCmd.Flags().IntVarP(&detectDuration, "duration", "d", 30, "Call duration in seconds")
	detectCmd.Flags().BoolVar(&detectMissed, "missed", false, "Treat the call as missed")
	detectCmd.Flags().BoolVarP(&detectVerbose, "verbose", "v", false, "Show per-signal scores")
}
