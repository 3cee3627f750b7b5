package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Travis-Britz/cfddns"
	"github.com/Travis-Britz/cfddns/internal/config"
)

func newCmdSetup(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Prompt for a domain and API token, verify them and write the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.opts.SettingsFile
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("settings file \"%s\" already exists", path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("checking \"%s\": %w", path, err)
			}

			a.logger.Debug("running setup")
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Enter the domain to keep updated: \n")
			domain, err := readLine(in)
			if err != nil {
				return fmt.Errorf("setup: error reading from stdin: %w", err)
			}
			fmt.Fprintf(out, "Enter Cloudflare API Token: \n")
			token, err := readSecret(cmd.InOrStdin(), in)
			if err != nil {
				return fmt.Errorf("setup: error reading from stdin: %w", err)
			}

			s := config.Settings{APIToken: token, Domain: domain}
			if err := s.Validate(); err != nil {
				return err
			}

			cf, err := cfddns.NewCloudflare(s.Credentials(), a.cloudflareOptions()...)
			if err != nil {
				return err
			}
			cf.SetRequestTimeout(a.opts.Timeout)
			a.logger.Info("verifying token...")
			if _, err := cf.Verify(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("token verified successfully")

			if err := config.WriteSettings(path, s); err != nil {
				return err
			}
			a.logger.Infof("settings written to \"%s\"", path)
			return nil
		},
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads without echo from a terminal and falls back to a plain line otherwise.
func readSecret(stdin io.Reader, buffered *bufio.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) && buffered.Buffered() == 0 {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return readLine(buffered)
}
