// Package main is the Waynex Logistics admin console.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/waynex/admin/internal/adminapi"
	"github.com/waynex/admin/internal/client"
	"github.com/waynex/admin/internal/config"
	"github.com/waynex/admin/internal/logging"
	"github.com/waynex/admin/internal/session"
	"github.com/waynex/admin/internal/swr"
)

// publicAnnotation marks commands that run without an admin session.
const publicAnnotation = "public"

// app is the wiring shared by every command.
type app struct {
	cfg     *config.Config
	store   *session.Store
	client  *client.Client
	fetcher *swr.Fetcher
	svc     *adminapi.Service

	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "waynex-admin",
		Short:         "Waynex Logistics admin console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			if isPublic(cmd) {
				return nil
			}
			return a.requireAdmin()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.fetcher != nil {
				a.fetcher.WaitIdle()
			}
			_ = logging.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newDashboardCmd(a),
		newCustomersCmd(a),
		newEmployeesCmd(a),
		newShipmentsCmd(a),
		newPaymentsCmd(a),
		newCodesCmd(a),
		newRatesCmd(a),
		newWatchCmd(a),
	)
	return root
}

// setup loads configuration and builds the session store, client, fetcher
// and service.
func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	if err := logging.Init(logging.Config{Level: level, Format: cfg.LogFormat}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	a.cfg = cfg
	a.store = session.NewStore(session.NewFileSlot(cfg.SessionFile))
	a.client = client.New(client.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.Timeout,
		Session: a.store,
	})
	a.fetcher = swr.New(a.client, swr.Options{TTL: cfg.CacheTTL})
	a.svc = adminapi.NewService(a.client, a.fetcher, a.store)

	logging.Debug("configured",
		logging.String("api_url", cfg.APIURL),
		logging.String("session_file", cfg.SessionFile),
	)
	return nil
}

var errNotAdmin = errors.New("admin access required")

// requireAdmin gates the admin pages on the signed-in user. The API still
// decides on every request; this only saves a round trip.
func (a *app) requireAdmin() error {
	sess := a.store.Get()
	if !sess.Authenticated() {
		return fmt.Errorf("%w: run 'waynex-admin login' first", session.ErrNoSession)
	}
	if !sess.IsAdmin {
		return fmt.Errorf("%w: %s is not an administrator", errNotAdmin, sess.Email)
	}
	return nil
}

func isPublic(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[publicAnnotation] == "true" {
			return true
		}
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

func public() map[string]string {
	return map[string]string{publicAnnotation: "true"}
}

// load observes key until it settles and decodes the result. A failed fetch
// returns the fetch error; an empty body yields the zero value.
func load[T any](ctx context.Context, f *swr.Fetcher, key string) (T, error) {
	h := f.Use(ctx, key)
	defer h.Close()

	var zero T
	st, err := h.Wait(ctx)
	if err != nil {
		return zero, err
	}
	if st.Err != nil {
		return zero, st.Err
	}
	v, err := swr.Decode[T](st)
	if errors.Is(err, swr.ErrNoData) {
		return zero, nil
	}
	return v, err
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
