package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formstore/internal/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve form sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&a.cfg.Port, "port", a.cfg.Port, "listen port")
	cmd.Flags().DurationVar(&a.cfg.SessionTTL, "session-ttl", a.cfg.SessionTTL, "idle time before a session is discarded")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	forms, err := a.loadForms(ctx)
	if err != nil {
		return err
	}

	sessions := httpapi.NewRegistry(a.cfg.SessionTTL, a.logger.Named("sessions"))
	srv := httpapi.NewServer(httpapi.Options{
		Forms:          forms,
		Sessions:       sessions,
		Collaborators:  a.collaborators(),
		Logger:         a.logger.Named("http"),
		MaxUploadBytes: a.cfg.MaxUploadBytes,
	})

	httpServer := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: a.cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting formstore", zap.String("port", a.cfg.Port), zap.Int("forms", forms.Len()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, a.cfg.JanitorInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
