package cli

import (
	"context"
	"os/signal"
	"syscall"

	"example.com/timeclock/internal/listener"
	"example.com/timeclock/internal/transport/wsclient"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newListenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Clock in and out from chat messages on a websocket feed",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateListen(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.listen(ctx)
		},
	}
}

func (a *app) listen(ctx context.Context) error {
	// listen logs at info unless a level was picked.
	log := a.log
	if a.opts.logLevel == "" && a.cfg.App.LogLevel == "warn" {
		log = newLogger(a.errw, "info")
	}

	l := listener.New(a.cfg, a.tracker, log.With("component", "listener"))
	client := wsclient.New(a.cfg, log.With("component", "wsclient"), func(raw []byte) {
		l.HandleFrame(raw)
	})

	log.Info("listening", "url", a.cfg.WS.URL, "owner", a.cfg.Listen.OwnerID, "store", a.store.Path())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Run(gctx)
	})
	g.Go(func() error {
		return l.Watch(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := client.Close(); err != nil {
			log.Debug("close websocket", "error", err)
		}
		return nil
	})

	err := g.Wait()
	log.Info("shutting down")
	return err
}
