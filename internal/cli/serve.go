package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var (
		model      string
		addr       string
		server     bool
		port       int
		timeout    time.Duration
		configFile string
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Expose generation and tokenization bricks over HTTP",
		Example: "  llamanetes serve --model ./model.gguf --addr :8090 --server",
		RunE: func(cmd *cobra.Command, args []string) error {
			mb, err := brick.NewModelBrick(brick.ModelConfig{
				ModelPath: model,
				Port:      port,
				Timeout:   timeout,
			})
			if err != nil {
				return err
			}
			defer func() { _ = mb.Close() }()
			gb, err := brick.NewGenerationBrick(mb, brick.DefaultGenerationParams())
			if err != nil {
				return err
			}
			tb, err := brick.NewTokenizationBrick(mb)
			if err != nil {
				return err
			}
			svc := httpapi.Service{Generation: gb, Tokenization: tb}
			if configFile != "" {
				cb, err := brick.NewConfigBrick(configFile)
				if err != nil {
					return err
				}
				if err := cb.Load(); err != nil {
					return err
				}
				svc.Config = cb
			}

			ctx := cmd.Context()
			if server {
				if err := mb.StartServer(ctx); err != nil {
					return err
				}
			}

			srv := &http.Server{Addr: addr, Handler: httpapi.NewMux(svc)}
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Str("model", model).Msg("llamanetes facade listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shCtx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown error")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Path to model file (required)")
	cmd.Flags().StringVar(&addr, "addr", ":8090", "HTTP listen address")
	cmd.Flags().BoolVar(&server, "server", false, "Start an owned llama-server behind the facade")
	cmd.Flags().IntVar(&port, "port", 8080, "Owned llama-server port")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Per-call timeout")
	cmd.Flags().StringVar(&configFile, "config", "", "Optional config file served at /v1/config")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
