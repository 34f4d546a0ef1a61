package list

import (
	"context"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"time"
)

func NewListImagesCmd(svc api.Service) *cobra.Command {
	var siteFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered images",
		Long:  "List all registered images, or only one site's with --site",
		Run: func(cmd *cobra.Command, args []string) {
			var siteID *uuid.UUID
			if siteFlag != "" {
				parsed, err := uuid.Parse(siteFlag)
				if err != nil {
					cmdutil.PrintE("--site must be a site id, run 'imagevault sites list'")
					return
				}
				siteID = &parsed
			}

			cmdutil.StartLoading("Working...")
			defer cmdutil.StopLoading()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			images, err := svc.ListImages(ctx, siteID)
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			header := table.Row{"ID", "Role", "Volume", "Last Snapshot", "Last Backup"}
			tw := table.NewWriter()
			tw.AppendHeader(header)
			for _, next := range images {
				lastBackup := "never"
				if next.LastBackupAt != nil {
					lastBackup = next.LastBackupAt.Format("02-01-2006 15:04")
				}
				row := table.Row{
					next.ID.String(),
					next.Role,
					next.SourceVolume,
					next.LastSnapshotID,
					lastBackup,
				}
				tw.AppendRow(row)
				tw.AppendSeparator()
			}
			cmdutil.Print("")
			cmdutil.Print(tw.Render())
		},
	}

	cmd.Flags().StringVarP(&siteFlag, "site", "s", "", "Only list images of this site")
	return cmd
}
