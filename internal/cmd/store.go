package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/git-credential-core/git-credential-core/internal/credential"
	"github.com/git-credential-core/git-credential-core/internal/protocol"
)

func newStoreCmd(ctx context.Context, f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "store",
		Short: "Record that a credential was accepted by the remote",
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

			cred := credential.Credential{Username: req.Username, Password: req.Password}
			return p.Store(ctx, req, cred)
		},
	}
}
