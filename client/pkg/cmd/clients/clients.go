package clients

import (
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/pkg/cmd/clients/create"
	"imagevault/client/pkg/cmd/clients/list"
)

func NewClientsCmd(svc api.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients <command>",
		Aliases: []string{"c"},
		Short:   "Manage backup clients",
		Long:    "Create and view the clients (MSP customers) whose machines are imaged",
	}

	cmd.AddCommand(create.NewCreateClientCmd(svc))
	cmd.AddCommand(list.NewListClientsCmd(svc))
	return cmd
}
