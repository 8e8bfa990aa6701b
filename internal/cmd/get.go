package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/git-credential-core/git-credential-core/internal/protocol"
)

func newGetCmd(ctx context.Context, f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Return a matching credential, if one exists, as Git credential attributes",
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

			cred, err := p.Get(ctx, req)
			if err != nil {
				return err
			}
			if cred.IsZero() {
				// Benign decline: no output, exit 0, and Git falls
				// through to its next helper or its own prompt.
				return nil
			}
			return protocol.WriteResponse(f.IOStreams.Out, req, cred)
		},
	}
}
