package create

import (
	"context"
	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"time"
)

var roles = []string{
	"workstation", "server", "domain-controller", "sql-server", "custom",
}

func NewCreateImageCmd(svc api.Service) *cobra.Command {
	var clientFlag, siteFlag string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Register a machine image",
		Example: "imagevault images create --client <client_id> --site <site_id>",
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

			rolePrompt := promptui.Select{
				Label: "Machine role",
				Items: roles,
				Templates: &promptui.SelectTemplates{
					Label:    "{{ . }}",
					Active:   "▸ {{ . | cyan }}",
					Inactive: "  {{ . }}",
					Selected: "✔ {{ . | green }}",
				},
			}
			_, role, err := rolePrompt.Run()
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			volumePrompt := promptui.Prompt{
				Label:   "Source volume",
				Default: "C:",
				Validate: func(s string) error {
					if len(s) == 0 {
						return errors.New("please enter a volume, e.g. C:")
					}
					return nil
				},
			}
			volume, err := volumePrompt.Run()
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.StartLoading("registering image...")
			defer cmdutil.StopLoading()

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			image, err := svc.CreateImage(ctx, api.CreateImageParams{
				ClientID:     clientID,
				SiteID:       siteID,
				Role:         role,
				SourceVolume: volume,
			})
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.PrintS("image registered! " + image.ID.String())
			cmdutil.Print("repository: " + image.RepositoryLocator)
		},
	}

	cmd.Flags().StringVarP(&clientFlag, "client", "c", "", "Client the machine belongs to")
	cmd.Flags().StringVarP(&siteFlag, "site", "s", "", "Site the machine lives at")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}
