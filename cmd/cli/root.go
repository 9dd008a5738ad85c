package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/voicenotes/internal/app"
	"github.com/and161185/voicenotes/internal/config"
	"github.com/and161185/voicenotes/internal/logging"
)

// cli carries state shared by subcommands for a single invocation.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	app *app.App
	log *zap.Logger
}

// run executes one invocation and releases the store however it ends.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	c := &cli{in: in, out: out, errOut: errOut}
	root := c.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, c.close())
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vn",
		Short:         "Voice notes from the command line.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if offline(cmd) {
				return nil
			}
			return c.open(cmd)
		},
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.AddCommand(
		c.versionCmd(),
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.refreshCmd(),
		c.transcriptsCmd(),
		c.notesCmd(),
		c.profileCmd(),
	)
	return root
}

// offline reports whether cmd runs without config or a store.
func offline(cmd *cobra.Command) bool {
	for p := cmd; p != nil; p = p.Parent() {
		switch p.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
		if p.Annotations["offline"] == "true" {
			return true
		}
	}
	return false
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a, err := app.Open(cmd.Context(), cfg, log, app.Options{
		OnSessionExpired: func() {
			fmt.Fprintln(c.errOut, "session ended: stored credentials were cleared")
		},
	})
	if err != nil {
		return err
	}
	c.app, c.log = a, log
	return nil
}

func (c *cli) close() error {
	if c.log != nil {
		defer func() { _ = c.log.Sync() }()
	}
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the client version",
		Annotations: map[string]string{"offline": "true"},
		Args:        cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(c.out, "vn %s (%s)\n", version, buildDate)
		},
	}
}
