package restore

import (
	"context"
	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"os"
	"os/signal"
	"strings"
)

func NewRestoreCmd(svc api.Service) *cobra.Command {
	var imageFlag, snapshotFlag, targetFlag string

	cmd := &cobra.Command{
		Use:     "restore",
		Short:   "Restore a snapshot to a target path",
		Long:    "Restore a snapshot's contents to a target path. The target must not be the live system volume; restore to a spare disk and swap.",
		Example: "imagevault restore --image <image_id> --snapshot <snapshot_id> --target D:\\restore",
		Run: func(cmd *cobra.Command, args []string) {
			imageID, err := uuid.Parse(imageFlag)
			if err != nil {
				cmdutil.PrintE("--image must be an image id, run 'imagevault images list'")
				return
			}

			confirm := promptui.Prompt{
				Label:     "Existing files under " + targetFlag + " may be overwritten. Continue",
				IsConfirm: true,
			}
			if _, err := confirm.Run(); err != nil {
				cmdutil.Print("restore aborted")
				return
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			op, err := svc.StartRestore(ctx, api.StartRestoreParams{
				ImageID:    imageID,
				SnapshotID: snapshotFlag,
				TargetPath: targetFlag,
			})
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.PrintS("restore started: " + op.OperationID)

			events, err := svc.StreamOperation(ctx, op.OperationID)
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			for {
				select {
				case ev, open := <-events:
					if !open {
						return
					}
					switch ev.Type {
					case api.Info:
						cmdutil.Print(strings.Trim(ev.Message, "\n"))
					case api.Error:
						cancel()
						cmdutil.PrintE(strings.Trim(ev.Message, "\n"))
					case api.Complete:
						cancel()
						cmdutil.PrintS("restore complete")
					}
				case <-ctx.Done():
					return
				}
			}
		},
	}

	cmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Image whose repository holds the snapshot")
	cmd.Flags().StringVarP(&snapshotFlag, "snapshot", "n", "", "Snapshot to restore")
	cmd.Flags().StringVarP(&targetFlag, "target", "t", "", "Directory the snapshot is restored into")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
