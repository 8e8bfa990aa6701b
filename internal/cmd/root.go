// Package cmd wires the cobra command tree for the helper's CLI surface:
// get, store, erase, configure, unconfigure, version, and help. Each
// command is built from a Factory carrying the three things a single-shot
// credential helper needs: streams, a settings resolver, and a provider
// registry builder.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/git-credential-core/git-credential-core/internal/buildinfo"
	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
	"github.com/git-credential-core/git-credential-core/internal/iostreams"
	"github.com/git-credential-core/git-credential-core/internal/provider"
	"github.com/git-credential-core/git-credential-core/internal/settings"
)

// Factory supplies the dependencies every subcommand needs, built once in
// main and threaded through instead of relying on package globals.
type Factory struct {
	IOStreams *iostreams.IOStreams
	Resolver  *settings.Resolver
	Registry  func() (*provider.Registry, error)
}

// NewRootCmd builds the top-level `git-credential-core` command and
// attaches every subcommand.
func NewRootCmd(ctx context.Context, f *Factory) *cobra.Command {
	root := &cobra.Command{
		Use:           "git-credential-core",
		Short:         "Universal Git credential helper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return cmdutil.Wrap(cmdutil.KindMalformedInput, err, "invalid arguments for %s", cmd.CommandPath())
	})

	root.AddCommand(newGetCmd(ctx, f))
	root.AddCommand(newStoreCmd(ctx, f))
	root.AddCommand(newEraseCmd(ctx, f))
	root.AddCommand(newConfigureCmd(ctx, f))
	root.AddCommand(newUnconfigureCmd(ctx, f))
	root.AddCommand(newVersionCmd(f))

	return root
}

func newVersionCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(f.IOStreams.Out, buildinfo.String())
			return nil
		},
	}
}

// ExitCodeFor maps an error from a subcommand's RunE onto the exit
// code convention: 0 success, 130 user-canceled, 1 everything else.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if cerr, ok := cmdutil.AsError(err); ok {
		return cerr.Kind.ExitCode()
	}
	return 1
}
