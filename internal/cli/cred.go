package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ppiankov/hostgate/internal/vault"
)

var credFromStdin bool

func init() {
	rootCmd.AddCommand(credCmd)
	credCmd.AddCommand(credStoreCmd)
	credCmd.AddCommand(credDeleteCmd)
	credCmd.AddCommand(credProbeCmd)
	credStoreCmd.Flags().BoolVar(&credFromStdin, "stdin", false, "Read the secret from stdin instead of prompting")
}

var credCmd = &cobra.Command{
	Use:   "cred",
	Short: "Operator access to the credential store",
	Long:  "Writes and deletes credentials in the OS secure store under the same\nservice names the host uses. Reading is only possible through a trusted\ncontent session.",
}

var credStoreCmd = &cobra.Command{
	Use:   "store <scope>",
	Short: "Store a credential, prompting for the secret without echo",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredStore,
}

var credDeleteCmd = &cobra.Command{
	Use:   "delete <scope>",
	Short: "Delete a credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredDelete,
}

var credProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the OS secure store is reachable",
	Args:  cobra.NoArgs,
	RunE:  runCredProbe,
}

func operatorVault() (*vault.Vault, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return vault.New(vault.KeyringBackend{}, cfg.CredentialPrefix, nil), nil
}

func runCredStore(cmd *cobra.Command, args []string) error {
	v, err := operatorVault()
	if err != nil {
		return err
	}
	secret, err := readSecret(cmd, credFromStdin)
	if err != nil {
		return err
	}
	if err := v.Store(args[0], &secret); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored %s for %s\n", v.Service(args[0]), v.Account())
	return nil
}

func runCredDelete(cmd *cobra.Command, args []string) error {
	v, err := operatorVault()
	if err != nil {
		return err
	}
	if err := v.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", v.Service(args[0]))
	return nil
}

func runCredProbe(cmd *cobra.Command, args []string) error {
	v, err := operatorVault()
	if err != nil {
		return err
	}
	if err := v.Probe(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "secure store reachable")
	return nil
}

// readSecret prompts on the terminal without echo, or reads one line from
// stdin when it is not a terminal or fromStdin is set.
func readSecret(cmd *cobra.Command, fromStdin bool) (string, error) {
	fd := int(syscall.Stdin)
	if !fromStdin && term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Secret: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return string(b), nil
	}
	return readLine(cmd.InOrStdin())
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
