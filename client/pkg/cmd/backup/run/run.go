package run

import (
	"context"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"os"
	"os/signal"
	"strings"
)

func NewRunBackupCmd(svc api.Service) *cobra.Command {
	var imageFlag string
	var detach bool

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Back up an image",
		Long:    "Snapshot the machine's volume and send it to the repository. Streams progress until the backup finishes; ctrl-c detaches without stopping the backup.",
		Example: "imagevault backup run --image <image_id>",
		Run: func(cmd *cobra.Command, args []string) {
			imageID, err := uuid.Parse(imageFlag)
			if err != nil {
				cmdutil.PrintE("--image must be an image id, run 'imagevault images list'")
				return
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			op, err := svc.StartBackup(ctx, imageID)
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.PrintS("backup started: " + op.OperationID)
			if detach {
				cmdutil.Print("follow with 'imagevault backup run --image " + imageFlag + "' or cancel with 'imagevault cancel " + op.OperationID + "'")
				return
			}

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
					handleEvent(ev, cancel)
				case <-ctx.Done():
					cmdutil.Print("detached; the backup keeps running on the server")
					return
				}
			}
		},
	}

	cmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Image to back up")
	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "Start the backup and return immediately")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func handleEvent(ev api.Event, cancel context.CancelFunc) {
	switch ev.Type {
	case api.Info:
		cmdutil.Print(strings.Trim(ev.Message, "\n"))
	case api.Warning:
		cmdutil.PrintW(strings.Trim(ev.Message, "\n"))
	case api.Error:
		cancel()
		cmdutil.PrintE(strings.Trim(ev.Message, "\n"))
	case api.Complete:
		cancel()
		var result struct {
			State      string `json:"state"`
			Warnings   bool   `json:"warnings"`
			SnapshotID string `json:"snapshot_id"`
			SizeBytes  uint64 `json:"size_bytes"`
		}
		if err := json.Unmarshal(ev.Data, &result); err != nil {
			cmdutil.PrintS("backup complete")
			return
		}

		if result.Warnings {
			cmdutil.PrintW("backup complete with warnings, some files were skipped")
		} else {
			cmdutil.PrintS("backup complete")
		}
		if result.SnapshotID != "" {
			cmdutil.Print("snapshot: " + result.SnapshotID)
		}
	}
}
