// Command commandcore publishes device commands to an IoT fleet.
//
// It resolves a device's connectivity through the device-management
// backend, picks the topic its firmware listens on, encodes the command and
// publishes it over MQTT (or NATS), recording every outcome to SQLite and,
// optionally, InfluxDB. With -console an operator drives it interactively.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/iot-command-core/internal/audit"
	"github.com/nerrad567/iot-command-core/internal/backend"
	"github.com/nerrad567/iot-command-core/internal/command"
	"github.com/nerrad567/iot-command-core/internal/console"
	"github.com/nerrad567/iot-command-core/internal/device"
	"github.com/nerrad567/iot-command-core/internal/firmware"
	"github.com/nerrad567/iot-command-core/internal/infrastructure/config"
	"github.com/nerrad567/iot-command-core/internal/infrastructure/database"
	"github.com/nerrad567/iot-command-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/iot-command-core/internal/infrastructure/logging"
	"github.com/nerrad567/iot-command-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/iot-command-core/internal/infrastructure/natsbus"
	"github.com/nerrad567/iot-command-core/internal/notify"
	"github.com/nerrad567/iot-command-core/internal/telemetry"
	"github.com/nerrad567/iot-command-core/migrations"
)

// Set at build time via -ldflags "-X main.version=1.0.0".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	auditSource       = "commandcore"
	healthInterval    = 30 * time.Second
	refreshInterval   = 5 * time.Minute
)

func main() {
	interactive := flag.Bool("console", false, "start the interactive operator console")
	configPath := flag.String("config", "", "path to config.yaml (default $COMMANDCORE_CONFIG or "+defaultConfigPath+")")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := options{configPath: getConfigPath(*configPath), console: *interactive}
	if err := run(ctx, cancel, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	console    bool
}

// bus is what the service needs from a transport client. Both the MQTT and
// NATS clients provide it.
type bus interface {
	command.Transport
	notify.Publisher
	telemetry.Subscriber
	HealthCheck(ctx context.Context) error
	Close() error
}

func run(ctx context.Context, cancel context.CancelFunc, opts options) error {
	log := logging.Default()
	log.Info("starting command core", "version", version, "commit", commit, "build_date", date)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var cons *console.Console
	if opts.console {
		cons = console.New(nil, nil, nil)
		if err := cons.Open(); err != nil {
			return err
		}
		defer cons.Close() //nolint:errcheck // restores the terminal on any exit path
		log = logging.NewWithWriter(cfg.Logging, version, cons.Stdout())
	} else {
		log = logging.New(cfg.Logging, version)
	}
	log.Info("configuration loaded", "path", opts.configPath, "transport", cfg.Transport.Kind)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", db.Path())

	transport, err := connectBus(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("disconnecting transport")
		if closeErr := transport.Close(); closeErr != nil {
			log.Error("error closing transport", "error", closeErr)
		}
	}()

	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorders := []command.Recorder{audit.NewRecorder(auditRepo, auditSource, log)}

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		influxClient = nil
		log.Info("influxdb disabled")
	case err != nil:
		influxClient = nil
		log.Warn("influxdb unavailable, continuing without metrics", "error", err)
	default:
		defer influxClient.Close() //nolint:errcheck // flushes on shutdown
		influxClient.SetOnError(func(err error) { log.Warn("influxdb write failed", "error", err) })
		recorders = append(recorders, telemetry.NewCommandMetrics(influxClient))
		log.Info("influxdb connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	sinks := notify.Fanout{notify.NewLog(log)}
	if cfg.Notifications.UIClientID != "" {
		topic := mqtt.Topics{}.UINotification(cfg.Notifications.UIClientID)
		sinks = append(sinks, notify.NewMQTT(transport, topic, log))
	}
	if cons != nil {
		sinks = append(sinks, console.NewNotifier(cons.Stdout()))
	}

	api := backend.New(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.GetBackendTimeout())
	registry := device.NewRegistry(device.NewAPIRepository(api))
	registry.SetLogger(log)

	dispatcher := command.NewDispatcher(transport, sinks, recorders...)
	commander := command.NewCommander(command.Config{
		Topics:            topicTable(cfg.Topics),
		MonitorIntervalMS: cfg.Monitor.IntervalMS,
		AssetBaseURL:      cfg.Firmware.AssetBaseURL,
	}, dispatcher, firmware.NewClient(api))
	commander.SetLogger(log)

	if influxClient != nil && cfg.Topics.MonitorPost != "" {
		feed := telemetry.NewFeed(cfg.Topics.MonitorPost, influxClient, registry)
		feed.SetLogger(log)
		if err := feed.Start(transport); err != nil {
			log.Warn("monitor telemetry feed not started", "error", err)
		} else {
			defer feed.Stop(transport) //nolint:errcheck // best effort on shutdown
		}
	}

	go maintain(ctx, log, registry, transport, db)

	log.Info("command core started")

	if cons != nil {
		cons.Attach(registry, commander, auditRepo)
		cons.Run(ctx, cancel)
	} else {
		<-ctx.Done()
	}

	log.Info("shutting down command core")
	return nil
}

// connectBus connects the configured transport.
func connectBus(cfg *config.Config, log *logging.Logger) (bus, error) {
	switch cfg.Transport.Kind {
	case config.TransportNATS:
		nc, err := natsbus.Connect(cfg.NATS)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}
		nc.SetLogger(log)
		log.Info("NATS connected", "url", cfg.NATS.URL)
		return nc, nil
	default:
		mc, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		mc.SetLogger(log)
		mc.SetOnConnect(func() { log.Info("MQTT connected") })
		mc.SetOnDisconnect(func(err error) { log.Warn("MQTT connection lost", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		return mc, nil
	}
}

func topicTable(t config.TopicsConfig) command.TopicTable {
	return command.TopicTable{
		PropertyOnline:  t.PropertyOnline,
		PropertyOffline: t.PropertyOffline,
		FunctionOnline:  t.FunctionOnline,
		FunctionOffline: t.FunctionOffline,
		OTA:             t.OTA,
		Monitor:         t.Monitor,
	}
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// maintain periodically checks infrastructure health and refreshes the
// device cache until ctx is done.
func maintain(ctx context.Context, log *logging.Logger, registry *device.Registry, checks ...healthChecker) {
	health := time.NewTicker(healthInterval)
	defer health.Stop()
	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-health.C:
			if err := healthCheck(ctx, checks...); err != nil {
				log.Warn("health check failed", "error", err)
			}
		case <-refresh.C:
			if err := registry.Refresh(ctx); err != nil {
				log.Warn("device cache refresh failed", "error", err)
			}
		}
	}
}

func healthCheck(ctx context.Context, checks ...healthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	for _, c := range checks {
		if err := c.HealthCheck(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// getConfigPath prefers the flag, then COMMANDCORE_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("COMMANDCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
