// Package cli implements scaffoldctl, a terminal client for the scaffold API.
package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/amirhosseinghanipour/scaffold/internal/client/api"
	"github.com/amirhosseinghanipour/scaffold/internal/client/syncclient"
)

type app struct {
	cfgFile string
	debug   bool
	cfg     *Config
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "scaffoldctl",
		Short:         "Drive the scaffold generation API from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := LoadConfig(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = c
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.scaffold/config.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug output")

	root.AddCommand(
		a.newCmd(),
		a.sendCmd(),
		a.watchCmd(),
		a.treeCmd(),
		a.catCmd(),
		a.projectsCmd(),
		a.templatesCmd(),
		a.usageCmd(),
		a.tokenCmd(),
		a.adminCmd(),
		a.hashSecretCmd(),
		a.configCmd(),
	)
	return root
}

// Execute is the entry point called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", describe(err))
		os.Exit(1)
	}
}

func (a *app) client() *api.Client {
	return api.New(a.cfg.APIURL,
		api.WithToken(a.cfg.Token),
		api.WithAdminSecret(a.cfg.AdminSecret),
		api.WithHTTPClient(&http.Client{Timeout: time.Duration(a.cfg.HTTPTimeoutSec) * time.Second}),
	)
}

func (a *app) logger(w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if a.debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).Level(level).With().Timestamp().Logger()
}

func (a *app) syncClient(cmd *cobra.Command, projectID string) *syncclient.Client {
	return syncclient.New(a.client(), projectID, syncclient.Options{
		MaxAttempts: a.cfg.MaxAttempts,
		Interval:    time.Duration(a.cfg.PollIntervalSec) * time.Second,
	}, a.logger(cmd.ErrOrStderr()))
}

// projectID resolves --project, falling back to the saved project.
func (a *app) projectID(cmd *cobra.Command) (string, error) {
	id, _ := cmd.Flags().GetString("project")
	if id == "" {
		id = a.cfg.ProjectID
	}
	if id == "" {
		return "", errors.New("no project: pass --project or run `scaffoldctl new` first")
	}
	return id, nil
}

func addProjectFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("project", "p", "", "project id (default: last project from `new`)")
}

// describe adds a hint for rejections the user can act on.
func describe(err error) string {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Error()
	}
	switch apiErr.Code {
	case "quota_exceeded":
		return msg + " (upgrade your plan or wait for the credit window to reset; see `scaffoldctl usage`)"
	case "unauthorized":
		return msg + " (set a token with `scaffoldctl token --save` or `scaffoldctl config set token …`)"
	}
	return msg
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
