package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soil_monitor/internal/config"
	"soil_monitor/internal/downlink"
	"soil_monitor/internal/handlers"
	"soil_monitor/internal/logger"
	"soil_monitor/internal/protocol"
	"soil_monitor/internal/publisher"
	"soil_monitor/internal/repository"
	"soil_monitor/internal/repository/db"
	"soil_monitor/internal/repository/mongostore"
	"soil_monitor/internal/server"
	"soil_monitor/internal/service"

	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("SOIL_CONFIG"))
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite always holds alarms, device status and operators.
	sqlDB, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	readings, mongoClient, err := openReadings(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open readings store", "err", err, "backend", cfg.Readings.Backend)
	}
	if mongoClient != nil {
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	}

	pubs := openPublishers(cfg, log)
	defer pubs.Close()

	policy, err := cfg.Schedule.Policy()
	if err != nil {
		log.Fatalw("invalid schedule", "err", err)
	}
	if cfg.Auth.SigningKey == "" {
		log.Warnw("auth.signing_key is empty; the /api/v1 routes will reject every token")
	}

	// wire dependencies
	repos := repository.NewRepository(sqlDB, readings)
	services := service.NewService(repos, service.Deps{
		Registry: protocol.NewRegistry(cfg.Devices...),
		Downlink: downlink.NewClient(downlink.Config{
			URL:     cfg.Downlink.URL,
			FPort:   cfg.Downlink.FPort,
			Timeout: cfg.Downlink.Timeout,
		}),
		Policy:    policy,
		Publisher: pubs,
		Auth:      service.AuthConfig{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		Log:       log,
	})
	apiHandler := handlers.NewHandler(services, log, handlers.WithDeleteTolerance(cfg.Query.DeleteTolerance))

	router := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(apiHandler.InitRoutes())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, router, log)
	log.Infow("soil monitor started",
		"port", cfg.Port,
		"readings_backend", cfg.Readings.Backend,
		"devices", cfg.Devices,
		"mqtt", cfg.MQTT.Enabled,
		"influx", cfg.Influx.Enabled,
	)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	log.Infow("opening sqlite", "path", cfg.DB.Path)
	return db.InitDB(cfg.DB.Path)
}

// openReadings returns a MongoDB readings store when configured. A nil store
// makes the repository layer fall back to SQLite.
func openReadings(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.ReadingRepo, *mongo.Client, error) {
	if cfg.Readings.Backend != config.BackendMongo {
		return nil, nil, nil
	}
	client, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
	if err != nil {
		return nil, nil, err
	}
	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	repo := mongostore.NewReadingRepository(coll, cfg.Mongo.Timeout)
	if err := repo.EnsureIndexes(ctx); err != nil {
		// Queries still work without the indexes, only slower.
		log.Warnw("mongo index creation failed", "err", err)
	}
	log.Infow("readings stored in mongo", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
	return repo, client, nil
}

// openPublishers connects the optional telemetry sinks. A sink that cannot be
// reached is skipped so the relay webhook keeps working.
func openPublishers(cfg *config.Config, log *logger.Logger) publisher.Multi {
	var pubs publisher.Multi
	if cfg.MQTT.Enabled {
		p, err := publisher.NewMQTT(publisher.MQTTConfig{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		})
		if err != nil {
			log.Errorw("mqtt publisher disabled", "err", err, "broker", cfg.MQTT.Broker)
		} else {
			pubs = append(pubs, p)
		}
	}
	if cfg.Influx.Enabled {
		p, err := publisher.NewInflux(publisher.InfluxConfig{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		})
		if err != nil {
			log.Errorw("influx publisher disabled", "err", err, "url", cfg.Influx.URL)
		} else {
			pubs = append(pubs, p)
		}
	}
	return pubs
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler http.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
