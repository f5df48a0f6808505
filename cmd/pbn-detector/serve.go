package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/rawblock/pbn-detector/internal/api"
	"github.com/rawblock/pbn-detector/internal/cache"
)

// httpService adapts an *http.Server to suture.Service so it is
// supervised alongside the background model-watcher and cache-GC loops.
type httpService struct {
	srv *http.Server
}

func (h *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- h.srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the detection HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer a.cacheDB.Close()

			ready := true
			handler := api.NewHandler(a.det, a.cfg.MaxBacklinks, a.log, func() bool { return ready })
			router := api.SetupRouter(handler)

			if addr == "" {
				addr = ":" + a.cfg.Port
			}

			root := suture.NewSimple("pbn-detector")
			root.Add(a.learned.Watch())
			root.Add(&cache.GCLoop{Cache: a.cacheDB, Interval: 10 * time.Minute})
			root.Add(&httpService{srv: &http.Server{Addr: addr, Handler: router}})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.log.Info().Str("addr", addr).Msg("pbn-detector listening")
			return root.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides PORT")
	return cmd
}
