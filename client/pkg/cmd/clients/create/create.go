package create

import (
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"time"
)

func NewCreateClientCmd(svc api.Service) *cobra.Command {
	mValidator := validator.New(validator.WithRequiredStructEnabled())

	return &cobra.Command{
		Use:   "create",
		Short: "Register a new client",
		Long:  "Register a new client. The short name becomes part of every repository path for this client and cannot be changed later.",
		Run: func(cmd *cobra.Command, args []string) {
			namePrompt := promptui.Prompt{
				Label: "Client name",
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

			descriptionPrompt := promptui.Prompt{Label: "Description (optional)"}
			description, err := descriptionPrompt.Run()
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.StartLoading(fmt.Sprintf("creating client: %s...", name))
			defer cmdutil.StopLoading()

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			client, err := svc.CreateClient(ctx, api.CreateClientParams{
				Name:        name,
				ShortName:   shortName,
				Description: description,
			})
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.PrintS("client created! " + client.ID.String())
		},
	}
}
