package cmd

import (
	"context"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/git-credential-core/git-credential-core/internal/cmdutil"
)

func newConfigureCmd(ctx context.Context, f *Factory) *cobra.Command {
	var system bool
	c := &cobra.Command{
		Use:   "configure",
		Short: "Register this helper as Git's credential.helper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGitConfig(system, "--replace-all", "credential.helper", helperPath())
		},
	}
	c.Flags().BoolVar(&system, "system", false, "configure at the system scope instead of global")
	return c
}

func newUnconfigureCmd(ctx context.Context, f *Factory) *cobra.Command {
	var system bool
	c := &cobra.Command{
		Use:   "unconfigure",
		Short: "Remove this helper from Git's credential.helper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGitConfig(system, "--unset-all", "credential.helper", helperPath())
		},
	}
	c.Flags().BoolVar(&system, "system", false, "unconfigure at the system scope instead of global")
	return c
}

func helperPath() string {
	exePath, err := exec.LookPath("git-credential-core")
	if err != nil {
		return "git-credential-core"
	}
	return exePath
}

func runGitConfig(system bool, args ...string) error {
	scopeFlag := "--global"
	if system {
		scopeFlag = "--system"
	}
	cmdArgs := append([]string{"config", scopeFlag}, args...)
	out, err := exec.Command("git", cmdArgs...).CombinedOutput()
	if err != nil {
		return cmdutil.Wrap(cmdutil.KindInternal, err, "git config failed: %s", out)
	}
	return nil
}
