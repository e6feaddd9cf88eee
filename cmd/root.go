// Package cmd wires the CLI: flag parsing, config loading, and the
// hand-off into the resolution orchestrator.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/remerge-cli/remerge/pkg/backup"
	"github.com/remerge-cli/remerge/pkg/config"
	"github.com/remerge-cli/remerge/pkg/exitcode"
	"github.com/remerge-cli/remerge/pkg/git"
	"github.com/remerge-cli/remerge/pkg/logging"
	"github.com/remerge-cli/remerge/pkg/notify"
	"github.com/remerge-cli/remerge/pkg/resolve"
	"github.com/remerge-cli/remerge/pkg/strategy"
	"github.com/remerge-cli/remerge/pkg/ui"
)

var (
	flagDryRun      bool
	flagVerbose     bool
	flagJSON        bool
	flagMaxAttempts int
	flagConcurrency int
	flagBackupDir   string
	flagTimeout     time.Duration
	flagNotifyURL   string
)

var rootCmd = &cobra.Command{
	Use:   "remerge",
	Short: "Automated merge conflict resolution",
	Long: "remerge scans the repository for conflicted files, resolves what it\n" +
		"can with file-type aware strategies, stages the results, and reports\n" +
		"what still needs a human.",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(run(cmd))
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "resolve in memory without touching the working tree")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "print the run report as JSON instead of the table")
	rootCmd.Flags().IntVar(&flagMaxAttempts, "max-attempts", 0, "retry budget per file (overrides config)")
	rootCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "number of files resolved in parallel (overrides config)")
	rootCmd.Flags().StringVar(&flagBackupDir, "backup-dir", "", "backup directory (overrides config)")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "package-manager command timeout (overrides config)")
	rootCmd.Flags().StringVar(&flagNotifyURL, "notify-url", "", "webhook URL for run notifications (overrides config)")

	rootCmd.AddCommand(purgeCmd)
}

// run resolves conflicts in the enclosing repository and returns the
// process exit code.
func run(cmd *cobra.Command) int {
	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec := git.NewDefaultExecutor()
	if !git.IsRepo(ctx, exec) {
		ui.Error("not inside a git repository")
		return exitcode.InternalError
	}
	root, err := git.RepoRoot(ctx, exec)
	if err != nil {
		ui.Error(fmt.Sprintf("locate repository root: %v", err))
		return exitcode.InternalError
	}
	exec.Dir = root

	cfg, err := config.Load(root)
	if err != nil {
		ui.Error(fmt.Sprintf("load config: %v", err))
		return exitcode.InternalError
	}
	applyFlags(cmd, &cfg)

	backups, err := backup.NewManager(resolveDir(root, cfg.BackupDir))
	if err != nil {
		ui.Error(fmt.Sprintf("prepare backup directory: %v", err))
		return exitcode.InternalError
	}

	var notifier notify.Notifier
	if cfg.NotifyURL != "" {
		notifier = notify.NewWebhook(cfg.NotifyURL)
	}

	orch := resolve.New(exec, backups, notifier, resolve.Options{
		Root:           root,
		DryRun:         flagDryRun,
		MaxAttempts:    cfg.MaxAttempts,
		Concurrency:    cfg.Concurrency,
		CommandTimeout: cfg.CommandTimeout.Duration,
		ReportDir:      resolveDir(root, cfg.ReportDir),
		NotifyChannel:  cfg.NotifyChannel,
		Strategy: strategy.Options{
			PreferOursOnOverlap: cfg.Code.PreferOursOnOverlap,
			RegenerateCommands:  cfg.Regenerate,
		},
	})

	if !flagJSON {
		title := "remerge"
		if flagDryRun {
			title += " (dry run)"
		}
		ui.Header(title)
	}

	rep, err := orch.Run(ctx)
	if err != nil {
		ui.Error(fmt.Sprintf("run failed: %v", err))
		notify.SendFailure(ctx, notifier, cfg.NotifyChannel, err)
		return exitcode.InternalError
	}

	if flagJSON {
		if err := rep.Encode(os.Stdout); err != nil {
			return exitcode.InternalError
		}
	} else {
		render(rep)
	}

	if rep.Clean() {
		return exitcode.Success
	}
	return exitcode.ManualReview
}

// applyFlags layers explicitly set flags over the file config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts = flagMaxAttempts
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = flagConcurrency
	}
	if cmd.Flags().Changed("backup-dir") {
		cfg.BackupDir = flagBackupDir
	}
	if cmd.Flags().Changed("timeout") {
		cfg.CommandTimeout.Duration = flagTimeout
	}
	if cmd.Flags().Changed("notify-url") {
		cfg.NotifyURL = flagNotifyURL
	}
}

// resolveDir anchors a relative config path at the repository root.
func resolveDir(root, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
