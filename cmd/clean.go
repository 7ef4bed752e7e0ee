package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anoixa/photo-album/internal/photos"
)

// cleanCmd 清理数据库孤儿记录和存储孤儿文件
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove photo rows without files and files without rows",
	Long: `Reconcile the database with storage.
This includes:
  - Delete photo rows whose file is missing from storage
  - Delete storage files that no photo row or profile photo references`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		dbOnly, _ := cmd.Flags().GetBool("db-only")
		storageOnly, _ := cmd.Flags().GetBool("storage-only")
		if dbOnly && storageOnly {
			return fmt.Errorf("--db-only and --storage-only are mutually exclusive")
		}
		return runClean(cmd.Context(), cmd.OutOrStdout(), dryRun, dbOnly, storageOnly)
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
	cleanCmd.Flags().Bool("db-only", false, "Only clean orphan database records")
	cleanCmd.Flags().Bool("storage-only", false, "Only clean orphan storage files")
}

// runClean 执行清理
func runClean(ctx context.Context, out io.Writer, dryRun, dbOnly, storageOnly bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	container, closeAll, err := openContainer(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	svc := container.PhotoService
	stats := &photos.Stats{}

	if !storageOnly {
		if err := svc.ReconcileRows(ctx, dryRun, stats); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("clean orphan DB records failed: %v", err))
		}
	}
	if !dbOnly {
		if err := svc.ReconcileFiles(ctx, dryRun, stats); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("clean orphan storage files failed: %v", err))
		}
	}

	printCleanStats(out, stats, dryRun)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("encountered %d errors during cleanup", len(stats.Errors))
	}
	return nil
}

// printCleanStats 打印清理统计
func printCleanStats(out io.Writer, stats *photos.Stats, dryRun bool) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "========================================")
	if dryRun {
		fmt.Fprintln(out, "           [DRY RUN MODE]")
	}
	fmt.Fprintln(out, "         Clean Statistics")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "Photo rows checked:         %d\n", stats.CheckedRows)
	fmt.Fprintf(out, "Orphan DB records found:    %d\n", stats.OrphanRows)
	fmt.Fprintf(out, "DB records deleted:         %d\n", stats.DeletedRows)
	fmt.Fprintf(out, "Storage files checked:      %d\n", stats.CheckedFiles)
	fmt.Fprintf(out, "Orphan storage files found: %d\n", stats.OrphanFiles)
	fmt.Fprintf(out, "Storage files deleted:      %d\n", stats.DeletedFiles)
	fmt.Fprintf(out, "Unrecognized keys skipped:  %d\n", stats.SkippedFiles)
	fmt.Fprintln(out, "========================================")

	if len(stats.Errors) > 0 {
		fmt.Fprintln(out, "\nErrors encountered:")
		for _, err := range stats.Errors {
			fmt.Fprintf(out, "  - %s\n", err)
		}
	}
}
