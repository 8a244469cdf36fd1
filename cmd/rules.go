package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tiago918/app-chamadas/pkg/config"
	"github.com/tiago918/app-chamadas/pkg/rules"
)

var (
	rulesConfig  string
	ruleKind     string
	rulePattern  string
	rulePriority int
	ruleInactive bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage detection rules",
	Long:  `List, add and remove the rules evaluated before scoring`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openRuleStore()
		if err != nil {
			return err
		}

		ruleList, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list rules: %v", err)
		}
		if len(ruleList) == 0 {
			fmt.Println("No rules configured")
			return nil
		}

		fmt.Printf("📋 %d rules:\n", len(ruleList))
		for _, r := range ruleList {
			state := "active"
			if !r.Active {
				state = "inactive"
			}
			fmt.Printf("  [%3d] %-14s %-24s %s (%s, %s)\n",
				r.Priority, r.Kind, r.Name, r.Pattern, state, r.ID)
		}
		return nil
	},
}

var rulesAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a rule",
	Long: `Add a rule to the store. Kinds: blacklist, whitelist, prefix, keyword,
regex, international, short_code, time_based.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openRuleStore()
		if err != nil {
			return err
		}

		rule := rules.Rule{
			Name:     args[0],
			Kind:     rules.Kind(ruleKind),
			Pattern:  rulePattern,
			Active:   !ruleInactive,
			Priority: rulePriority,
		}
		created, err := store.Create(rule)
		if err != nil {
			return fmt.Errorf("failed to add rule: %v", err)
		}

		fmt.Printf("✅ Rule added: %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete [rule-id]",
	Short: "Delete a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openRuleStore()
		if err != nil {
			return err
		}

		if err := store.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to delete rule: %v", err)
		}
		fmt.Printf("✅ Rule deleted: %s\n", args[0])
		return nil
	},
}

func openRuleStore() (rules.Store, *config.Config, error) {
	cfg, err := config.LoadConfig(rulesConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %v", err)
	}
	return rules.NewFileStore(cfg.Rules.Path), cfg, nil
}

func init() {
	rulesCmd.PersistentFlags().StringVarP(&rulesConfig, "config", "c", "", "Configuration file path")
	rulesAddCmd.Flags().StringVarP(&ruleKind, "kind", "k", "blacklist", "Rule kind")
	rulesAddCmd.Flags().StringVarP(&rulePattern, "pattern", "p", "", "Rule pattern")
	rulesAddCmd.Flags().IntVar(&rulePriority, "priority", 0, "Evaluation priority (higher first)")
	rulesAddCmd.Flags().BoolVar(&ruleInactive, "inactive", false, "Create the rule disabled")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesDeleteCmd)
}
