package backup

import (
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/pkg/cmd/backup/list"
	"imagevault/client/pkg/cmd/backup/run"
)

func NewBackupCmd(svc api.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup <command>",
		Aliases: []string{"b"},
		Short:   "Run and inspect backups",
	}

	cmd.AddCommand(run.NewRunBackupCmd(svc))
	cmd.AddCommand(list.NewListBackupsCmd(svc))
	return cmd
}
