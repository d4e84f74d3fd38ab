package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "github.com/cherubic/NLog/migrations"

	"github.com/cherubic/NLog/internal/api"
	"github.com/cherubic/NLog/internal/audit"
	"github.com/cherubic/NLog/internal/infrastructure/config"
	"github.com/cherubic/NLog/internal/infrastructure/database"
	"github.com/cherubic/NLog/internal/infrastructure/influxdb"
	"github.com/cherubic/NLog/internal/infrastructure/logging"
	"github.com/cherubic/NLog/internal/infrastructure/mqtt"
	"github.com/cherubic/NLog/internal/lifecycle"
	"github.com/cherubic/NLog/internal/logconfig"
	"github.com/cherubic/NLog/internal/remote"
	"github.com/cherubic/NLog/internal/resolver"
	"github.com/cherubic/NLog/internal/telemetry"
	"github.com/cherubic/NLog/internal/watch"
)

// auditSource identifies entries written by the daemon's recorder.
const auditSource = "nlogd"

// errNoDocument is returned when an explicitly configured document is missing.
var errNoDocument = errors.New("logging configuration document not found")

// pipelines holds the process-wide default instance while run is active.
var pipelines = lifecycle.NewHolder(nil)

// activateInstance creates the named instance and makes it the process
// default. release drops it again.
func activateInstance(name string, log *logging.Logger) (*lifecycle.Instance, func()) {
	inst := lifecycle.New(name)
	inst.SetLogger(log)
	pipelines.Replace(inst)
	return inst, func() { pipelines.Reset() }
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting nlogd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "instance", cfg.Instance.Name)

	inst, release := activateInstance(cfg.Instance.Name, log)
	defer release()

	// Observers are attached before the first install so it is recorded.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := telemetry.NewCollector(reg)
	if err := collector.Track(inst); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	defer collector.Untrack(inst)

	var (
		db        *database.DB
		auditRepo audit.Repository
	)
	if cfg.Database.Enabled {
		db, err = openDatabase(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		repo := audit.NewSQLiteRepository(db.DB)
		auditRepo = repo
		recorder := audit.NewRecorder(repo, auditSource, log)
		inst.Subscribe(recorder)
		defer inst.Unsubscribe(recorder)
	} else {
		log.Info("audit database disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			collector.SetPointWriter(nil)
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		collector.SetPointWriter(influxClient)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Records written through the pipeline go to whatever document is
	// installed, and nowhere while nothing is.
	pipeline := slog.New(logconfig.NewHandler(inst)).With("instance", inst.Name())
	activated := inst.OnConfigurationChanged(func(e lifecycle.ChangedEvent) {
		pipeline.Info("logging configuration activated",
			"configuration", lifecycle.Describe(e.Activated),
			"previous", lifecycle.Describe(e.Deactivated),
		)
	})
	defer activated.Cancel()

	if err := installDocument(cfg, inst, log); err != nil {
		return err
	}

	watcher, err := watch.New(inst, watch.Options{
		Files:    cfg.Pipeline.Watch,
		Debounce: cfg.GetDebounce(),
		Interval: cfg.GetReloadInterval(),
		Timeout:  cfg.GetReloadTimeout(),
	})
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	watcher.SetLogger(log)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() {
		log.Info("stopping watcher")
		watcher.Stop()
	}()

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		var relay *remote.Relay
		mqttClient, relay, err = startRemote(cfg, inst, log)
		if err != nil {
			return err
		}
		defer func() {
			if stopErr := relay.Stop(); stopErr != nil {
				log.Warn("error stopping MQTT relay", "error", stopErr)
			}
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.Admin.Enabled {
		deps := api.Deps{
			Config:    cfg.Admin,
			Logger:    log,
			Instance:  inst,
			AuditRepo: auditRepo,
			Gatherer:  reg,
			Version:   version,
		}
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}
		if influxClient != nil {
			deps.InfluxDB = influxClient
		}
		srv, err := api.New(deps)
		if err != nil {
			return fmt.Errorf("creating admin server: %w", err)
		}
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting admin server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing admin server", "error", closeErr)
			}
		}()
	} else {
		log.Info("admin server disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// openDatabase opens the audit database and applies migrations.
func openDatabase(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("audit database ready", "path", cfg.Database.Path)
	return db, nil
}

// installDocument locates the logging document and installs it.
//
// An explicitly configured document must exist. When discovering, finding
// nothing leaves the instance empty, which disables pipeline output.
func installDocument(cfg *config.Config, inst *lifecycle.Instance, log *logging.Logger) error {
	path, explicit, found := locateDocument(cfg)
	if !found {
		if explicit {
			return fmt.Errorf("%w: %s", errNoDocument, cfg.Pipeline.ConfigFile)
		}
		log.Warn("no logging configuration found, pipeline output disabled",
			"candidates", cfg.Pipeline.DefaultFileNames,
		)
		return nil
	}

	doc, err := logconfig.LoadWithOptions(path, logconfig.Options{Version: version})
	if err != nil {
		return fmt.Errorf("loading logging configuration: %w", err)
	}
	inst.SetConfiguration(doc)
	log.Info("logging configuration installed", "path", path, "auto_reload", doc.AutoReload)
	return nil
}

// locateDocument returns the document path. explicit reports whether it
// came from pipeline.config_file.
func locateDocument(cfg *config.Config) (path string, explicit, found bool) {
	r := newResolver(cfg)
	if name := cfg.Pipeline.ConfigFile; name != "" {
		path = r.Resolve(name)
		return path, true, resolver.FileExists(path)
	}
	path, found = r.Discover(cfg.Pipeline.DefaultFileNames...)
	return path, false, found
}

// startRemote connects to the broker and starts the command relay.
func startRemote(cfg *config.Config, inst *lifecycle.Instance, log *logging.Logger) (*mqtt.Client, *remote.Relay, error) {
	topics := mqtt.NewTopics(cfg.Instance.Name)
	client, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	relay := remote.New(inst, client, topics, byte(cfg.MQTT.QoS), log)
	if err := relay.Start(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("starting MQTT relay: %w", err)
	}

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"commands", topics.AllCommands(),
	)
	return client, relay, nil
}

// healthCheck verifies the enabled infrastructure connections.
// Nil clients are skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
