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

func NewListSitesCmd(svc api.Service) *cobra.Command {
	var clientFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a client's sites",
		Run: func(cmd *cobra.Command, args []string) {
			clientID, err := uuid.Parse(clientFlag)
			if err != nil {
				cmdutil.PrintE("--client must be a client id, run 'imagevault clients list'")
				return
			}

			cmdutil.StartLoading("Working...")
			defer cmdutil.StopLoading()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sites, err := svc.ListSites(ctx, clientID)
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			header := table.Row{"ID", "Name", "Short Name", "Time Created"}
			tw := table.NewWriter()
			tw.AppendHeader(header)
			for _, next := range sites {
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

	cmd.Flags().StringVarP(&clientFlag, "client", "c", "", "Client whose sites to list")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}
