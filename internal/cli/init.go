package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/hostgate/internal/config"
)

var (
	initStage   string
	initTrusted []string
	initLoadURL string
	initForce   bool
)

func init() {
	initCmd.Flags().StringVar(&initStage, "stage", string(config.StageProduction), "Build stage: dev, staging or production")
	initCmd.Flags().StringSliceVar(&initTrusted, "trust", nil, "Trusted origin prefix (repeatable)")
	initCmd.Flags().StringVar(&initLoadURL, "load-url", "", "URL the main window loads")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file and create the state directory",
	Long: `Writes config.yaml (default ~/.hostgate/config.yaml) from the built-in
defaults plus any --trust, --stage and --load-url values, and creates the
state directory with owner-only permissions.

Nothing is trusted until trusted_domains lists at least one origin prefix.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	cfg.Stage = config.Stage(initStage)
	if len(initTrusted) > 0 {
		cfg.TrustedDomains = initTrusted
	}
	if initLoadURL != "" {
		cfg.LoadURL = initLoadURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := resolvedConfigPath()
	content, err := starterConfigYAML(cfg)
	if err != nil {
		return fmt.Errorf("generate config: %w", err)
	}

	var created []string
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if wrote, err := writeIfMissing(path, content); err != nil {
		return err
	} else if wrote {
		created = append(created, path)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "hostgate init complete.")
	fmt.Fprintln(out)
	if len(created) > 0 {
		fmt.Fprintln(out, "Created:")
		for _, p := range created {
			fmt.Fprintf(out, "  %s\n", p)
		}
	} else {
		fmt.Fprintln(out, "Config already exists (use --force to overwrite).")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Verify:")
	fmt.Fprintln(out, "  hostgate doctor")
	if len(cfg.TrustedDomains) == 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "No trusted domains yet: add them to trusted_domains or rerun with --trust.")
	}
	return nil
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// starterConfigYAML renders cfg with a short explanatory header.
func starterConfigYAML(cfg *config.Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	header := "# hostgate configuration. Loaded once at startup; edits need a restart.\n" +
		"# trusted_domains: origin prefixes allowed to call privileged operations.\n" +
		"# stage: dev additionally trusts http://localhost and http://127.0.0.1.\n" +
		"# shell_secret: leave empty to generate one into state_dir/shell.secret.\n\n"
	return header + string(data), nil
}
