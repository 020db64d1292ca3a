package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/deng0529/GUItest-building-heating/internal/config"
	"github.com/deng0529/GUItest-building-heating/internal/db"
	"github.com/deng0529/GUItest-building-heating/internal/httpapi"
	"github.com/deng0529/GUItest-building-heating/internal/ingest"
	"github.com/deng0529/GUItest-building-heating/internal/metrics"
	"github.com/deng0529/GUItest-building-heating/internal/migrate"
	"github.com/deng0529/GUItest-building-heating/internal/modules/dashboard"
	dashboardviews "github.com/deng0529/GUItest-building-heating/internal/modules/dashboard/views"
	"github.com/deng0529/GUItest-building-heating/internal/mqtt"
	"github.com/deng0529/GUItest-building-heating/internal/pipeline"
	"github.com/deng0529/GUItest-building-heating/internal/source"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"warehouseTable", cfg.WarehouseTable,
		"timeColumn", cfg.TimeColumn,
		"zoneLabelsFile", cfg.ZoneLabelsFile,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	applied, err := migrate.Run(ctx, dbConn, logger)
	if err != nil {
		return err
	}
	logger.Info("database ready", "migrations_applied", len(applied))

	labels, err := config.LoadZoneLabels(cfg.ZoneLabelsFile)
	if err != nil {
		return err
	}

	if err := dashboardviews.LoadTemplates(); err != nil {
		return err
	}

	m := metrics.New()
	warehouse := source.NewWarehouse(dbConn, logger)
	cycles := pipeline.New(warehouse, logger, m, labels)

	var mqttStatus httpapi.ConnectionStatus
	var subscriber *mqtt.Subscriber
	if cfg.MQTTEnabled {
		repo, err := ingest.NewRepository(dbConn, cfg.WarehouseTable)
		if err != nil {
			return err
		}
		// Set the handler before Connect so the OnConnect subscription
		// delivers queued messages to it.
		subscriber = mqtt.NewSubscriber(mqtt.Options{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			ClientID: cfg.MQTTClientID,
		}, cfg.MQTTTopic, logger)
		ingest.NewService(repo, logger, m).Register(subscriber)
		mqttStatus = subscriber

		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			// HTTP and /healthz keep working while the broker is down.
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	mux := httpapi.NewMux(dbConn, mqttStatus, m.Handler())
	dashboard.RegisterFeature(mux, cycles, warehouse, labels, cfg, logger)

	srv := httpapi.NewServer(cfg, mux, logger, m)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		logger.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
