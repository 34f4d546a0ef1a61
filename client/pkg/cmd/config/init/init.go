package initcmd

import (
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"imagevault/client/internal/cmdutil"
	"imagevault/client/internal/config"
	"net/url"
)

func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Configure the server address and access key",
		Run: func(cmd *cobra.Command, args []string) {
			hostPrompt := promptui.Prompt{
				Label:   "Server address",
				Default: "http://localhost:3646",
				Validate: func(s string) error {
					u, err := url.Parse(s)
					if err != nil || u.Scheme == "" || u.Host == "" {
						return errors.New("please enter a valid http(s) URL")
					}
					return nil
				},
			}
			host, err := hostPrompt.Run()
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			keyPrompt := promptui.Prompt{
				Label: "Access key (leave empty for an open server)",
				Mask:  '*',
			}
			accessKey, err := keyPrompt.Run()
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			if err := config.Write(config.Config{Host: host, AccessKey: accessKey}); err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.PrintS("configuration written to " + config.Path())
		},
	}
}
