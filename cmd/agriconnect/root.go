package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/agriconnect-backend/internal/apiclient"
	"github.com/javajoker/agriconnect-backend/internal/realtime"
	"github.com/javajoker/agriconnect-backend/internal/session"
)

var errNotLoggedIn = errors.New("not logged in; run `agriconnect login` first")

// app carries the global flags and the per-invocation session.
type app struct {
	server      string
	sessionPath string
	lang        string
	idleTimeout time.Duration
	verbose     bool

	out     io.Writer
	in      io.Reader
	plain   bool
	manager *session.Manager
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "agriconnect",
		Short:         "Command line client for the AgriConnect marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.out = cmd.OutOrStdout()
			a.in = cmd.InOrStdin()
			a.plain = !isTerminal(a.out)

			logrus.SetOutput(cmd.ErrOrStderr())
			logrus.SetLevel(logrus.WarnLevel)
			if a.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.manager != nil {
				a.manager.Close()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.server, "server", envOr("AGRICONNECT_SERVER", "http://localhost:5000"), "API base URL")
	flags.StringVar(&a.sessionPath, "session", envOr("AGRICONNECT_SESSION", session.DefaultPath()), "session file")
	flags.StringVar(&a.lang, "lang", envOr("AGRICONNECT_LANG", ""), "preferred message language (en, zh-TW)")
	flags.DurationVar(&a.idleTimeout, "idle-timeout", session.DefaultIdleTimeout, "log out after this long without activity")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProductsCmd(a),
		newOrdersCmd(a),
		newNotificationsCmd(a),
		newWatchCmd(a),
	)

	return rootCmd
}

// session builds the session manager. Only watch opens a live connection.
func (a *app) session(live bool, onEvent func(realtime.Message)) *session.Manager {
	opts := session.Options{
		Store:       session.NewFileStore(a.sessionPath),
		IdleTimeout: a.idleTimeout,
		OnEvent:     onEvent,
	}
	if live {
		opts.Connector = session.NewDialerConnector(&realtime.Dialer{URL: wsURL(a.server)})
	}
	a.manager = session.NewManager(opts)
	return a.manager
}

func (a *app) client(s apiclient.Session) *apiclient.Client {
	opts := []apiclient.Option{apiclient.WithSession(s)}
	if a.lang != "" {
		opts = append(opts, apiclient.WithLanguage(a.lang))
	}
	return apiclient.New(a.server, opts...)
}

// restored returns an API client bound to the stored session.
func (a *app) restored(ctx context.Context) (*apiclient.Client, *session.Manager, error) {
	m := a.session(false, nil)
	ok, err := m.Restore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, errNotLoggedIn
	}
	return a.client(m), m, nil
}

func wsURL(server string) string {
	server = strings.TrimRight(server, "/")
	switch {
	case strings.HasPrefix(server, "https://"):
		server = "wss://" + strings.TrimPrefix(server, "https://")
	case strings.HasPrefix(server, "http://"):
		server = "ws://" + strings.TrimPrefix(server, "http://")
	}
	return server + "/ws"
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
