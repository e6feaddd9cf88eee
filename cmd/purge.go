package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remerge-cli/remerge/pkg/backup"
	"github.com/remerge-cli/remerge/pkg/config"
	"github.com/remerge-cli/remerge/pkg/exitcode"
	"github.com/remerge-cli/remerge/pkg/git"
	"github.com/remerge-cli/remerge/pkg/ui"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all retained backup snapshots",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(purge())
	},
}

func purge() int {
	ctx := context.Background()

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

	cfg, err := config.Load(root)
	if err != nil {
		ui.Error(fmt.Sprintf("load config: %v", err))
		return exitcode.InternalError
	}

	dir := resolveDir(root, cfg.BackupDir)
	if err := backup.PurgeAll(dir); err != nil {
		ui.Error(fmt.Sprintf("purge backups: %v", err))
		return exitcode.InternalError
	}
	ui.Success(fmt.Sprintf("removed backups under %s", dir))
	return exitcode.Success
}
