package config

import (
	"github.com/spf13/cobra"
	initcmd "imagevault/client/pkg/cmd/config/init"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <command>",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(initcmd.NewInitCmd())
	return cmd
}
