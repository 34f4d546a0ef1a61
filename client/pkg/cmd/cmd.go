package cmd

import (
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/config"
	"imagevault/client/pkg/cmd/backup"
	"imagevault/client/pkg/cmd/cancel"
	"imagevault/client/pkg/cmd/clients"
	configcmd "imagevault/client/pkg/cmd/config"
	"imagevault/client/pkg/cmd/credential"
	"imagevault/client/pkg/cmd/images"
	"imagevault/client/pkg/cmd/restore"
	"imagevault/client/pkg/cmd/sites"
	"imagevault/client/pkg/cmd/snapshots"
)

func New() (*cobra.Command, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}

	svc := api.NewService(api.NewClient(cfg))

	cmd := &cobra.Command{
		Use:   "imagevault",
		Short: "imagevault - system image backup orchestration",
	}

	cmd.AddCommand(configcmd.NewConfigCmd())
	cmd.AddCommand(clients.NewClientsCmd(svc))
	cmd.AddCommand(sites.NewSitesCmd(svc))
	cmd.AddCommand(images.NewImagesCmd(svc))
	cmd.AddCommand(credential.NewCredentialCmd(svc))
	cmd.AddCommand(backup.NewBackupCmd(svc))
	cmd.AddCommand(restore.NewRestoreCmd(svc))
	cmd.AddCommand(snapshots.NewSnapshotsCmd(svc))
	cmd.AddCommand(cancel.NewCancelCmd(svc))
	return cmd, nil
}
