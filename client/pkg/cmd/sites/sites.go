package sites

import (
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/pkg/cmd/sites/create"
	"imagevault/client/pkg/cmd/sites/list"
)

func NewSitesCmd(svc api.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites <command>",
		Short: "Manage client sites",
		Long:  "Create and view the physical locations under a client. Each site gets its own restic repository.",
	}

	cmd.AddCommand(create.NewCreateSiteCmd(svc))
	cmd.AddCommand(list.NewListSitesCmd(svc))
	return cmd
}
