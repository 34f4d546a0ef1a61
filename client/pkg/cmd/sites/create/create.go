package create

import (
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"time"
)

func NewCreateSiteCmd(svc api.Service) *cobra.Command {
	mValidator := validator.New(validator.WithRequiredStructEnabled())
	var clientFlag string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a site under a client",
		Example: "imagevault sites create --client <client_id>",
		Run: func(cmd *cobra.Command, args []string) {
			clientID, err := uuid.Parse(clientFlag)
			if err != nil {
				cmdutil.PrintE("--client must be a client id, run 'imagevault clients list'")
				return
			}

			namePrompt := promptui.Prompt{
				Label: "Site name",
				Validate: func(s string) error {
					if len(s) == 0 {
						return errors.New("please enter a valid name")
					}
					return nil
				},
			}
			name, err := namePrompt.Run()
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			shortNamePrompt := promptui.Prompt{
				Label: "Short name (letters and digits, max 12)",
				Validate: func(s string) error {
					if err := mValidator.Var(s, "required,alphanum,max=12"); err != nil {
						return fmt.Errorf("%s is not a valid short name", s)
					}
					return nil
				},
			}
			shortName, err := shortNamePrompt.Run()
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.StartLoading(fmt.Sprintf("creating site: %s...", name))
			defer cmdutil.StopLoading()

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			site, err := svc.CreateSite(ctx, api.CreateSiteParams{
				ClientID:  clientID,
				Name:      name,
				ShortName: shortName,
			})
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.PrintS("site created! " + site.ID.String())
			cmdutil.Print("next: 'imagevault images create' to register machines, then 'imagevault credential show' before the first backup")
		},
	}

	cmd.Flags().StringVarP(&clientFlag, "client", "c", "", "Client the site belongs to")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}
