package ack

import (
	"context"
	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"time"
)

func NewAckCredentialCmd(svc api.Service) *cobra.Command {
	var clientFlag, siteFlag string

	cmd := &cobra.Command{
		Use:     "ack",
		Short:   "Confirm the repository password has been saved",
		Example: "imagevault credential ack --client <client_id> --site <site_id>",
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

			confirm := promptui.Prompt{
				Label:     "Password is stored in a password manager",
				IsConfirm: true,
			}
			if _, err := confirm.Run(); err != nil {
				cmdutil.Print("not acknowledged; backups stay disabled for this repository")
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := svc.AcknowledgeCredential(ctx, clientID, siteID); err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.PrintS("credential acknowledged, backups are enabled")
		},
	}

	cmd.Flags().StringVarP(&clientFlag, "client", "c", "", "Client the credential belongs to")
	cmd.Flags().StringVarP(&siteFlag, "site", "s", "", "Site the credential belongs to")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}
