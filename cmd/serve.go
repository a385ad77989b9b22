package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"linegraph/algo"
	"linegraph/db"
	"linegraph/handler"
	"linegraph/logger"
	"linegraph/metrics"
	"linegraph/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the edge merge HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.LogMode)
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := db.Open(ctx, cfg.Store, log)
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		rec := metrics.New(reg)

		engine := algo.NewEngine(store, log,
			algo.WithResolver(utils.Resolver{Precision: cfg.Ingest.CoordPrecision}),
			algo.WithMetrics(rec),
		)

		if cfg.LogMode == "prod" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := handler.NewRouter(&handler.Handler{Engine: engine}, []byte(cfg.HTTP.JWTSecret), reg)
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("服务器启动", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver, "auth", cfg.HTTP.JWTSecret != "")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("服务器启动失败: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("服务器关闭中")
		return srv.Shutdown(shutdownCtx)
	},
}
