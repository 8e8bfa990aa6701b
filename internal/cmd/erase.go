package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/git-credential-core/git-credential-core/internal/protocol"
)

func newEraseCmd(ctx context.Context, f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "erase",
		Short: "Discard a cached credential that the remote rejected",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := protocol.ReadRequest(f.IOStreams.In)
			if err != nil {
				return err
			}

			registry, err := f.Registry()
			if err != nil {
				return err
			}
			p, err := registry.Resolve(req)
			if err != nil {
				return err
			}

			return p.Erase(ctx, req)
		},
	}
}
