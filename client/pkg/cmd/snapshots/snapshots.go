package snapshots

import (
	"context"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"strings"
	"time"
)

func NewSnapshotsCmd(svc api.Service) *cobra.Command {
	var imageFlag string

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List the snapshots in an image's repository",
		Run: func(cmd *cobra.Command, args []string) {
			imageID, err := uuid.Parse(imageFlag)
			if err != nil {
				cmdutil.PrintE("--image must be an image id, run 'imagevault images list'")
				return
			}

			cmdutil.StartLoading("Working...")
			defer cmdutil.StopLoading()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			snapshots, err := svc.ListSnapshots(ctx, imageID)
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			header := table.Row{"ID", "Time", "Paths", "Tags"}
			tw := table.NewWriter()
			tw.AppendHeader(header)
			for _, next := range snapshots {
				row := table.Row{
					next.ShortID,
					next.Time,
					strings.Join(next.Paths, ", "),
					strings.Join(next.Tags, ", "),
				}
				tw.AppendRow(row)
				tw.AppendSeparator()
			}
			cmdutil.Print("")
			cmdutil.Print(tw.Render())
		},
	}

	cmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Image whose repository to inspect")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}
