package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s8r-framework/s8r/internal/cli"
	"github.com/s8r-framework/s8r/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Starts the s8r framework in server mode, exposing components and machines over a JSON API.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		addr, _ := cmd.Flags().GetString("addr")

		fw, err := cli.Setup(configPath)
		if err != nil {
			fmt.Printf("Error initializing s8r: %v\n", err)
			os.Exit(1)
		}
		defer fw.Close()

		cfg := fw.Config()
		if !cmd.Flags().Changed("addr") {
			addr = cfg.HTTP.Addr
		}

		api := httpapi.NewServer(fw.Components(), fw.Machines(), fw.DataFlow(),
			httpapi.WithLogger(fw.Logger()))

		srv := &http.Server{
			Addr:         addr,
			Handler:      api.Handler(),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			fw.Logger().Info("starting HTTP server", "addr", addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
		fw.Logger().Info("server stopped gracefully")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides configuration)")
}
