package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/hostgate/internal/audit"
	"github.com/ppiankov/hostgate/internal/bridge"
	"github.com/ppiankov/hostgate/internal/config"
	"github.com/ppiankov/hostgate/internal/files"
	"github.com/ppiankov/hostgate/internal/host"
	"github.com/ppiankov/hostgate/internal/vault"
	"github.com/ppiankov/hostgate/internal/window"
)

var (
	serveListen       string
	serveMemoryVault  bool
	serveNoAudit      bool
	serveOpenMain     bool
	serveReplyTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveMemoryVault, "memory-vault", false, "Keep credentials in memory instead of the OS keyring")
	serveCmd.Flags().BoolVar(&serveNoAudit, "no-audit", false, "Disable the audit log")
	serveCmd.Flags().BoolVar(&serveOpenMain, "open-main", true, "Open the main window at load_url when the shell attaches")
	serveCmd.Flags().DurationVar(&serveReplyTimeout, "shell-timeout", bridge.DefaultReplyTimeout, "How long to wait for shell replies")
}

var serveCmd = &cobra.Command{
	Use:   "serve [-- app-args...]",
	Short: "Run the host",
	Long:  "Serves the content channel (/ipc), the shell control channel (/shell)\nand /healthz. Arguments after -- are returned to content by getCliArgs.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, hash, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}
	if err := os.MkdirAll(cfg.StateDir, 0700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	var auditor host.Auditor
	if !serveNoAudit {
		auditLog, err := audit.Open(cfg.AuditLogPath())
		if err != nil {
			return err
		}
		defer auditLog.Close()
		auditor = auditLog
		logger.Info("audit log", "path", auditLog.Path())
	}

	var backend vault.Backend = vault.KeyringBackend{}
	if serveMemoryVault {
		backend = vault.NewMemoryBackend()
		logger.Warn("credentials are kept in memory and lost on exit")
	}

	secret, err := shellSecret(cfg, logger)
	if err != nil {
		return err
	}

	assets, err := files.NewDirs(cfg.Identifier).Assets()
	if err != nil {
		logger.Warn("asset route disabled", "error", err)
	}

	shell := bridge.NewShellRuntime(serveReplyTimeout, logger)
	var h *host.Host

	srv := bridge.NewServer(bridge.Options{
		Shell:       shell,
		ShellSecret: secret,
		Logger:      logger,
		AssetsDir:   assets,
		OnShellAttach: func() {
			if !serveOpenMain {
				return
			}
			if label, err := h.OpenMainWindow(); err != nil {
				logger.Error("main window not opened", "error", err)
			} else {
				logger.Info("main window opened", "label", label)
			}
		},
	})

	h, err = host.New(host.Options{
		Config:     cfg,
		ConfigHash: hash,
		Runtime:    shell,
		Backend:    backend,
		Audit:      auditor,
		Events:     srv,
		State:      window.NewStateStore(cfg.WindowStatePath()),
		CLIArgs:    args,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	srv.Attach(h)
	defer srv.Close()

	if err := h.Vault().Probe(); err != nil {
		logger.Warn("secure store unavailable, credential calls will fail", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := config.NewWatcher(resolvedConfigPath(), hash, logger, func(newHash string) {
		logger.Warn("config changed on disk, restart required", "hash", newHash)
	})
	if err != nil {
		logger.Debug("config watcher disabled", "error", err)
	} else {
		go watcher.Run(ctx)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "stage", cfg.Stage, "trusted_domains", cfg.TrustedDomains)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	srv.Close()
	if left := h.Shutdown(); left > 0 {
		logger.Warn("processes still running at exit", "count", left)
	}
	return nil
}

// shellSecret returns the configured shell secret, or generates one and
// writes it where the desktop shell can read it.
func shellSecret(cfg *config.Config, logger *slog.Logger) (string, error) {
	if cfg.ShellSecret != "" {
		return cfg.ShellSecret, nil
	}
	path := cfg.ShellSecretPath()
	if data, err := os.ReadFile(path); err == nil {
		if s := strings.TrimSpace(string(data)); s != "" {
			return s, nil
		}
	}
	secret := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(secret+"\n"), 0600); err != nil {
		return "", fmt.Errorf("write shell secret: %w", err)
	}
	logger.Info("generated shell secret", "path", path)
	return secret, nil
}
