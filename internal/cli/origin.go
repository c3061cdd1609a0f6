package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hostgate/internal/origin"
)

func init() {
	rootCmd.AddCommand(originCmd)
	originCmd.AddCommand(originCheckCmd)
}

var originCmd = &cobra.Command{
	Use:   "origin",
	Short: "Origin trust tools",
}

var originCheckCmd = &cobra.Command{
	Use:   "check <url>...",
	Short: "Report whether URLs would be trusted under the current config",
	Long:  "Evaluates each URL against trusted_domains and the build stage.\nExits 1 if any URL is untrusted.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runOriginCheck,
}

func runOriginCheck(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	eval := origin.NewEvaluator(cfg.TrustedDomains, cfg.Stage)

	out := cmd.OutOrStdout()
	untrusted := 0
	for _, u := range args {
		verdict := "trusted"
		if !eval.Trusted(u) {
			verdict = "untrusted"
			untrusted++
		}
		fmt.Fprintf(out, "%-9s %s\n", verdict, u)
	}
	fmt.Fprintf(out, "stage: %s\n", eval.Stage())
	if untrusted > 0 {
		os.Exit(1)
	}
	return nil
}
