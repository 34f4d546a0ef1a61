package show

import (
	"context"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"time"
)

func NewShowCredentialCmd(svc api.Service) *cobra.Command {
	var clientFlag, siteFlag string

	cmd := &cobra.Command{
		Use:     "show",
		Short:   "Show the repository password for a client/site pair",
		Example: "imagevault credential show --client <client_id> --site <site_id>",
		Run: func(cmd *cobra.Command, args []string) {
			clientID, err := uuid.Parse(clientFlag)
			if err != nil {
				cmdutil.PrintE("--client must be a client id, run 'imagevault clients list'")
				return
			}
			siteID, err := uuid.Parse(siteFlag)
			if err != nil {
				cmdutil.PrintE("--site must be a site id, run 'imagevault sites list'")
				return
			}

			cmdutil.StartLoading("Working...")
			defer cmdutil.StopLoading()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			cred, err := svc.IssueCredential(ctx, clientID, siteID)
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			if cred.AcknowledgedAt != nil {
				cmdutil.Print("credential already acknowledged on " + cred.AcknowledgedAt.Format("02-01-2006 15:04"))
				cmdutil.Print("the password cannot be shown again")
				return
			}

			cmdutil.PrintW("SAVE THIS PASSWORD IN YOUR PASSWORD MANAGER NOW.")
			cmdutil.PrintW("Losing it means losing every backup in this repository.")
			cmdutil.Print("")
			cmdutil.Print("  " + cred.Password)
			cmdutil.Print("")
			cmdutil.Print("run 'imagevault credential ack' once it is saved to enable backups")
		},
	}

	cmd.Flags().StringVarP(&clientFlag, "client", "c", "", "Client the credential belongs to")
	cmd.Flags().StringVarP(&siteFlag, "site", "s", "", "Site the credential belongs to")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}
