package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tiago918/app-chamadas/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Generate and validate configuration files`,
}

var configGenCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := "chamadas.yml"
		if len(args) > 0 {
			configPath = args[0]
		}

		if _, err := os.Stat(configPath); err == nil {
			overwrite, _ := cmd.Flags().GetBool("force")
			if !overwrite {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
			}
		}

		if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
			return fmt.Errorf("failed to save config: %v", err)
		}

		fmt.Printf("✅ Configuration file generated: %s\n", configPath)
		fmt.Printf("🚀 Use 'chamadas detect --config %s' to use it\n", configPath)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(args[0])
		if err != nil {
			return fmt.Errorf("❌ Configuration validation failed: %v", err)
		}

		fmt.Printf("✅ Configuration is valid: %s\n", args[0])
		fmt.Printf("\n📊 Configuration Summary:\n")
		fmt.Printf("  Spam threshold:   %.2f\n", cfg.Detection.SpamThreshold)
		fmt.Printf("  Fusion weights:   learned %.2f / behavior %.2f / rule %.2f\n",
			cfg.Detection.Weights.Learned, cfg.Detection.Weights.Behavior, cfg.Detection.Weights.Rule)
		fmt.Printf("  Keywords:         %d\n", len(cfg.Detection.Keywords))
		fmt.Printf("  Model backend:    %s\n", cfg.Learning.Backend)
		fmt.Printf("  Rule store:       %s\n", cfg.Rules.Path)
		fmt.Printf("  Logging:          %s/%s\n",
			strings.ToLower(cfg.Logging.Level), strings.ToLower(cfg.Logging.Format))
		return nil
	},
}

func init() {
	configGenCmd.Flags().BoolP("force", "f", false, "Overwrite existing config file")

	configCmd.AddCommand(configGenCmd)
	configCmd.AddCommand(configValidateCmd)
}
