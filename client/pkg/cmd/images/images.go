package images

import (
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/pkg/cmd/images/create"
	"imagevault/client/pkg/cmd/images/list"
)

func NewImagesCmd(svc api.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images <command>",
		Aliases: []string{"i"},
		Short:   "Manage machine images",
		Long:    "Register and view the machines backed up per site",
	}

	cmd.AddCommand(create.NewCreateImageCmd(svc))
	cmd.AddCommand(list.NewListImagesCmd(svc))
	return cmd
}
