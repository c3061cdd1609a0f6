package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hostgate/internal/audit"
	"github.com/ppiankov/hostgate/internal/config"
	"github.com/ppiankov/hostgate/internal/origin"
	"github.com/ppiankov/hostgate/internal/vault"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check host readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

// doctorBackend is swapped in tests.
var doctorBackend vault.Backend = vault.KeyringBackend{}

func runDoctor(cmd *cobra.Command, args []string) error {
	checks := doctorChecks()

	out := cmd.OutOrStdout()
	hasFailures := false
	for _, c := range checks {
		mark := "\u2713" // ✓
		if !c.ok {
			mark = "\u2717" // ✗
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out)
	if hasFailures {
		fmt.Fprintln(out, "Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}
	fmt.Fprintln(out, "All checks passed.")
	return nil
}

func doctorChecks() []checkResult {
	var checks []checkResult

	path := resolvedConfigPath()
	cfg, _, err := config.LoadConfigWithHash(path)
	if err != nil {
		return append(checks, checkResult{
			label:  "config",
			detail: err.Error(),
			fix:    "fix " + path,
		})
	}
	if _, statErr := os.Stat(path); statErr == nil {
		checks = append(checks, checkResult{label: "config", ok: true, detail: path})
	} else {
		checks = append(checks, checkResult{
			label:  "config",
			detail: "missing, using defaults",
			fix:    "hostgate init",
		})
	}

	if len(cfg.TrustedDomains) > 0 {
		checks = append(checks, checkResult{
			label:  "trusted domains",
			ok:     true,
			detail: fmt.Sprintf("%d configured (stage %s)", len(cfg.TrustedDomains), cfg.Stage),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "trusted domains",
			detail: "none, no content will be trusted",
			fix:    "hostgate init --trust <origin> --force",
		})
	}

	if origin.IsTrusted(cfg.LoadURL, cfg.TrustedDomains, cfg.Stage) {
		checks = append(checks, checkResult{label: "load url", ok: true, detail: cfg.LoadURL + " is trusted"})
	} else {
		checks = append(checks, checkResult{
			label:  "load url",
			detail: cfg.LoadURL + " is not trusted",
			fix:    "add its origin to trusted_domains",
		})
	}

	if info, err := os.Stat(cfg.StateDir); err == nil && info.IsDir() {
		detail := cfg.StateDir
		ok := true
		if info.Mode().Perm()&0o077 != 0 {
			ok = false
			detail = fmt.Sprintf("%s is %v, readable by others", cfg.StateDir, info.Mode().Perm())
		}
		checks = append(checks, checkResult{label: "state directory", ok: ok, detail: detail, fix: "chmod 700 " + cfg.StateDir})
	} else {
		checks = append(checks, checkResult{label: "state directory", detail: "missing", fix: "hostgate init"})
	}

	v := vault.New(doctorBackend, cfg.CredentialPrefix, nil)
	if err := v.Probe(); err == nil {
		checks = append(checks, checkResult{label: "secure store", ok: true, detail: "reachable as " + v.Account()})
	} else {
		checks = append(checks, checkResult{label: "secure store", detail: err.Error()})
	}

	auditPath := cfg.AuditLogPath()
	if _, err := os.Stat(auditPath); err != nil {
		checks = append(checks, checkResult{label: "audit log", ok: true, detail: "not written yet"})
	} else if r := audit.Verify(auditPath); r.Valid {
		checks = append(checks, checkResult{label: "audit log", ok: true, detail: fmt.Sprintf("%d entries, chain intact", r.Lines)})
	} else {
		checks = append(checks, checkResult{
			label:  "audit log",
			detail: fmt.Sprintf("chain broken at line %d: %s", r.ErrorLine, r.Error),
			fix:    "hostgate audit verify " + auditPath,
		})
	}

	return checks
}
