package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/waynex/admin/internal/adminapi"
	"github.com/waynex/admin/internal/logging"
	"github.com/waynex/admin/internal/metrics"
	"github.com/waynex/admin/internal/session"
	"github.com/waynex/admin/internal/swr"
)

// view is a watchable page: the key it observes and how to draw its data.
type view struct {
	key    func(p adminapi.ListParams, status adminapi.CodeStatus) string
	render func(w io.Writer, st swr.State, limit int) error
}

func renderDecoded[T any](draw func(io.Writer, T, int)) func(io.Writer, swr.State, int) error {
	return func(w io.Writer, st swr.State, limit int) error {
		v, err := swr.Decode[T](st)
		if err != nil && !errors.Is(err, swr.ErrNoData) {
			return err
		}
		draw(w, v, limit)
		return nil
	}
}

var views = map[string]view{
	"dashboard": {
		key: func(adminapi.ListParams, adminapi.CodeStatus) string { return adminapi.AnalyticsKey() },
		render: renderDecoded(func(w io.Writer, s adminapi.DashboardStats, _ int) {
			renderDashboard(w, s)
		}),
	},
	"customers": {
		key: func(p adminapi.ListParams, _ adminapi.CodeStatus) string { return adminapi.UsersKey(p) },
		render: renderDecoded(func(w io.Writer, r adminapi.UsersResponse, limit int) {
			renderUsers(w, r, limit, "customers")
		}),
	},
	"employees": {
		key: func(p adminapi.ListParams, _ adminapi.CodeStatus) string { return adminapi.EmployeesKey(p) },
		render: renderDecoded(func(w io.Writer, r adminapi.UsersResponse, limit int) {
			renderUsers(w, r, limit, "employees")
		}),
	},
	"shipments": {
		key:    func(p adminapi.ListParams, _ adminapi.CodeStatus) string { return adminapi.ShipmentsKey(p) },
		render: renderDecoded(renderShipments),
	},
	"payments": {
		key: func(adminapi.ListParams, adminapi.CodeStatus) string { return adminapi.PaymentsKey() },
		render: renderDecoded(func(w io.Writer, p []adminapi.PaymentRequest, _ int) {
			renderPayments(w, p)
		}),
	},
	"codes": {
		key: func(_ adminapi.ListParams, s adminapi.CodeStatus) string { return adminapi.BalanceCodesKey(s) },
		render: renderDecoded(func(w io.Writer, c []adminapi.BalanceCode, _ int) {
			renderCodes(w, c)
		}),
	},
}

func viewNames() []string {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		params      adminapi.ListParams
		status      string
		interval    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:       "watch <" + strings.Join(viewNames(), "|") + ">",
		Short:     "Keep a page on screen, refreshing it on an interval",
		Args:      cobra.ExactArgs(1),
		ValidArgs: viewNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok := views[args[0]]
			if !ok {
				return fmt.Errorf("unknown page %q (want one of %s)", args[0], strings.Join(viewNames(), ", "))
			}
			codeStatus, err := adminapi.ParseCodeStatus(status)
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}
			if metricsAddr == "" {
				metricsAddr = a.cfg.MetricsAddr
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr)
				defer stop()
			}

			return a.watch(ctx, out(cmd), v.key(params, codeStatus), params.Normalized().Limit, v.render, interval)
		},
	}
	addListFlags(cmd, &params)
	cmd.Flags().StringVar(&status, "status", "all", "Balance code filter: all, active or redeemed")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Refresh interval")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

// watch renders key every time it settles and revalidates it on each tick.
// It stops when ctx ends or the session is cleared.
func (a *app) watch(ctx context.Context, w io.Writer, key string, limit int,
	render func(io.Writer, swr.State, int) error, interval time.Duration) error {

	sessCh := a.store.Subscribe()
	defer a.store.Unsubscribe(sessCh)
	if err := a.store.Watch(ctx); err != nil {
		logging.Warn("not watching session file", logging.Err(err))
	}

	// Subscribe before the first fetch so its result is not missed.
	h := a.fetcher.Use(ctx, "")
	defer h.Close()
	changes := h.Changes()
	h.SetKey(key)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			h.Revalidate()

		case c := <-sessCh:
			if !c.Session.Authenticated() {
				return fmt.Errorf("%w: signed out", session.ErrNoSession)
			}

		case st, ok := <-changes:
			if !ok {
				return nil
			}
			if st.IsLoading {
				continue
			}
			fmt.Fprintf(w, "\n== %s  (updated %s)\n", key, time.Now().Format("15:04:05"))
			if st.Err != nil {
				// Keep the last data on screen when a refresh fails.
				fmt.Fprintf(w, "Refresh failed: %v\n", st.Err)
				if !st.HasData() {
					continue
				}
			}
			if err := render(w, st, limit); err != nil {
				return err
			}
		}
	}
}

// serveMetrics exposes /metrics on addr until the returned stop is called.
func serveMetrics(addr string) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.Info("metrics server listening", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", logging.Err(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
