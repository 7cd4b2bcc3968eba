package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"agrimap/server/internal/api"
	"agrimap/server/internal/metrics"
	"agrimap/server/internal/models"
	"agrimap/server/internal/pipeline"
	"agrimap/server/internal/processor"
	"agrimap/server/internal/queue"
	"agrimap/server/internal/scheduler"
	"agrimap/server/internal/telegram"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API with live recomputation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		opts, err := pipeline.OptionsFromConfig(cfg)
		if err != nil {
			return err
		}

		m := metrics.New()
		hub := pipeline.NewHub(db, opts, logger, m)

		reportQueue := queue.NewReportQueue(cfg.BatchProcessing.MaxBatchSize, logger)
		batchProcessor := processor.NewBatchProcessor(db.GetDB(), reportQueue, cfg, logger)
		batchProcessor.OnCommitted(func(batch []*models.PriceReport) {
			for _, r := range batch {
				m.ReportIngested(string(r.Role))
			}
			m.QueueDepth(reportQueue.Len())
			hub.Notify()
		})
		batchProcessor.Start()

		sched := scheduler.NewScheduler(hub, db, loc, cfg.Retention.Days, logger, m)

		if logger.GetLevel() < logrus.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}
		router := gin.New()
		router.Use(gin.Recovery())
		handler := api.NewHandler(hub, reportQueue, logger, m)
		api.SetupRoutes(router, handler, cfg.Server.AllowedOrigins)

		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    ":" + port,
			Handler: router,
		}
		srv.RegisterOnShutdown(handler.Close)

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error { return hub.Run(gctx) })
		g.Go(func() error { return sched.Run(gctx) })

		if cfg.Telegram.Enabled {
			alerts := telegram.NewService(telegram.Config{
				IsEnabled: true,
				BotToken:  cfg.Telegram.BotToken,
				ChatID:    cfg.Telegram.ChatID,
			}, logger)
			updates, unsubscribe := hub.Subscribe()
			defer unsubscribe()
			g.Go(func() error { return alerts.Run(gctx, updates) })
		}

		g.Go(func() error {
			logger.Infof("Starting server on port %s", port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)

			// No new pushes once the server is down; store what was accepted
			batchProcessor.Stop(shutdownCtx)
			return err
		})

		// Build the default snapshot before the first request
		hub.Notify()

		if err := g.Wait(); err != nil {
			logger.WithError(err).Error("Server stopped with error")
			return err
		}
		logger.Info("Server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "server port (default from SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}
