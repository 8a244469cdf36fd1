package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chamadas",
	Short: "Chamadas - phone call and SMS spam detection",
	Long: `Chamadas scores phone calls and text messages by fusing three signals:
user-defined rules, an online learned model and per-sender behavioral
profiles. Feedback from the user trains the model incrementally.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Chamadas - Spam Detection Engine")
		fmt.Println("Use 'chamadas --help' for usage information")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
}
