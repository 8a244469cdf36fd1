package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsConfig string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show engine and model statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		det, cfg, err := buildDetector(statsConfig)
		if err != nil {
			return err
		}

		stats := det.Stats()
		fmt.Printf("📊 Engine Statistics:\n")
		fmt.Printf("  Detections:       %d\n", stats.Detections)
		fmt.Printf("  Spam detected:    %d\n", stats.SpamDetected)
		fmt.Printf("  Cache entries:    %d (hit rate %.1f%%)\n",
			stats.CacheEntries, stats.CacheHitRate*100)
		fmt.Printf("  Profiled senders: %d\n", stats.ProfiledSenders)
		fmt.Printf("  Active rules:     %d\n", stats.ActiveRules)

		fmt.Printf("\n🧠 Learned Model:\n")
		fmt.Printf("  Backend:  %s\n", cfg.Learning.Backend)
		fmt.Printf("  Features: %d\n", stats.Model.FeatureCount)
		fmt.Printf("  Samples:  %d\n", stats.Model.Samples)
		fmt.Printf("  Accuracy: %.1f%%\n", stats.Model.Accuracy*100)
		if !stats.Model.LastTrained.IsZero() {
			fmt.Printf("  Last trained: %s\n", stats.Model.LastTrained.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsConfig, "config", "c", "", "Configuration file path")
}
