package list

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"time"
)

func NewListBackupsCmd(svc api.Service) *cobra.Command {
	var imageFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an image's backup history",
		Run: func(cmd *cobra.Command, args []string) {
			imageID, err := uuid.Parse(imageFlag)
			if err != nil {
				cmdutil.PrintE("--image must be an image id, run 'imagevault images list'")
				return
			}

			cmdutil.StartLoading("Working...")
			defer cmdutil.StopLoading()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			records, err := svc.ListBackupRecords(ctx, imageID)
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			header := table.Row{"Snapshot", "Size", "Duration", "Warnings", "Sync", "Time Created"}
			tw := table.NewWriter()
			tw.AppendHeader(header)
			for _, next := range records {
				row := table.Row{
					next.SnapshotID,
					formatBytes(next.SizeBytes),
					fmt.Sprintf("%.0fs", next.DurationSeconds),
					next.Warnings,
					next.SyncState,
					next.CreatedAt.Format("02-01-2006 15:04"),
				}
				tw.AppendRow(row)
				tw.AppendSeparator()
			}
			cmdutil.Print("")
			cmdutil.Print(tw.Render())
		},
	}

	cmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Image whose backups to list")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
