package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Travis-Britz/cfddns/internal/config"
	"github.com/Travis-Britz/cfddns/internal/logging"
)

var version = "dev"

// app carries the state shared by all subcommands once the root command has parsed its flags.
type app struct {
	opts   config.Options
	log    logging.Config
	policy config.ConfigErrorPolicy

	logger    *logrus.Logger
	logCloser io.Closer
}

// loadDotenv fills the environment from an optional .env in the working directory.
// Variables that are already set win.
func loadDotenv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	// before bindFlags, which reads the CFDDNS_* defaults
	dotenvErr := loadDotenv()

	cmd := &cobra.Command{
		Use:     "cfddnsd",
		Short:   "Keep the A records of a Cloudflare zone pointed at this host's public IP",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.bindFlags(cmd.PersistentFlags())

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		if dotenvErr != nil {
			return dotenvErr
		}
		l, closer, err := logging.New(a.log)
		if err != nil {
			return err
		}
		a.logger, a.logCloser = l, closer

		policy, warning, err := a.opts.Normalize()
		if err != nil {
			return err
		}
		a.policy = policy
		if warning != "" {
			a.logger.Warn(warning)
		}
		return nil
	}
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if a.logCloser != nil {
			return a.logCloser.Close()
		}
		return nil
	}

	cmd.AddCommand(newCmdRun(a))
	cmd.AddCommand(newCmdOnce(a))
	cmd.AddCommand(newCmdResetCache(a))
	cmd.AddCommand(newCmdVerify(a))
	cmd.AddCommand(newCmdSetup(a))
	cmd.AddCommand(newCmdVersion())
	return cmd
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cfddnsd: %s\n", err)
		os.Exit(1)
	}
}
