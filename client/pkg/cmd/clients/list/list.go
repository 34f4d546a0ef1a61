package list

import (
	"context"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"time"
)

func NewListClientsCmd(svc api.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.StartLoading("Working...")
			defer cmdutil.StopLoading()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			clients, err := svc.ListClients(ctx)
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			header := table.Row{"ID", "Name", "Short Name", "Time Created"}
			tw := table.NewWriter()
			tw.AppendHeader(header)
			for _, next := range clients {
				row := table.Row{
					next.ID.String(),
					next.Name,
					next.ShortName,
					next.CreatedAt.Format("02-01-2006"),
				}
				tw.AppendRow(row)
				tw.AppendSeparator()
			}
			cmdutil.Print("")
			cmdutil.Print(tw.Render())
		},
	}
}
