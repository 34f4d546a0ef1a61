package credential

import (
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/pkg/cmd/credential/ack"
	"imagevault/client/pkg/cmd/credential/show"
)

func NewCredentialCmd(svc api.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential <command>",
		Short: "Manage repository credentials",
		Long:  "Show and acknowledge the repository password for a client/site pair. The password is generated once and shown until acknowledged; after that it can never be retrieved again.",
	}

	cmd.AddCommand(show.NewShowCredentialCmd(svc))
	cmd.AddCommand(ack.NewAckCredentialCmd(svc))
	return cmd
}
