package cancel

import (
	"context"
	"github.com/spf13/cobra"
	"imagevault/client/internal/api"
	"imagevault/client/internal/cmdutil"
	"time"
)

func NewCancelCmd(svc api.Service) *cobra.Command {
	return &cobra.Command{
		Use:     "cancel <operation_id>",
		Short:   "Cancel a running operation",
		Long:    "Cancel a running backup or restore. The server cleans up the volume snapshot and releases the repository before the operation reports finished.",
		Args:    cobra.ExactArgs(1),
		Example: "imagevault cancel 4f7c2c9a-...",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancelFn := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancelFn()

			if err := svc.CancelOperation(ctx, args[0]); err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.PrintS("cancellation requested")
		},
	}
}
