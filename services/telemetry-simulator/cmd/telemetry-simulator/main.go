// Package main is the entry point for the telemetry-simulator, which
// publishes synthetic robot telemetry to Kafka.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afikmenashe/robot-telemetry/pkg/metrics"
	"github.com/afikmenashe/robot-telemetry/pkg/shared"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-simulator/internal/config"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-simulator/internal/generator"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-simulator/internal/processor"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-simulator/internal/producer"
)

const serviceName = "telemetry-simulator"

func main() {
	cfg := config.Config{}
	var mockMode bool
	var logFormat, logLevel string
	flag.StringVar(&cfg.KafkaBrokers, "kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
	flag.StringVar(&cfg.Topic, "topic", shared.GetEnvOrDefault("TELEMETRY_TOPIC", "robot.telemetry"), "Kafka topic name")
	flag.StringVar(&cfg.FleetFile, "fleet", os.Getenv("FLEET_FILE"), "YAML fleet definition (empty = built-in fleet)")
	flag.StringVar(&cfg.Schedule, "schedule", "@every 5s", "Cron schedule for ticks (e.g. '@every 5s', '*/1 * * * *')")
	flag.DurationVar(&cfg.Duration, "duration", 60*time.Second, "Duration to run in scheduled mode (e.g., 60s, 5m)")
	flag.IntVar(&cfg.BurstSize, "burst", 0, "Burst mode: publish N ticks immediately, then stop (0 = scheduled)")
	flag.Int64Var(&cfg.Seed, "seed", 0, "Random seed for deterministic generation (0 = random)")
	flag.StringVar(&cfg.Shape, "shape", config.ShapeMixed, "Envelope shape: nested, flat or mixed")
	flag.StringVar(&cfg.Encoding, "encoding", "json", "Payload encoding: json, cbor or protobuf")
	flag.BoolVar(&mockMode, "mock", false, "Use mock producer (no Kafka required, logs events instead)")
	flag.StringVar(&logFormat, "log-format", shared.GetEnvOrDefault("LOG_FORMAT", "json"), "Log format (json or text)")
	flag.StringVar(&logLevel, "log-level", shared.GetEnvOrDefault("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	flag.Parse()

	slog.SetDefault(shared.NewLogger(os.Stdout, logFormat, logLevel))

	slog.Info("Starting telemetry-simulator",
		"kafka_brokers", cfg.KafkaBrokers,
		"topic", cfg.Topic,
		"fleet", cfg.FleetFile,
		"schedule", cfg.Schedule,
		"duration", cfg.Duration,
		"burst_size", cfg.BurstSize,
		"seed", cfg.Seed,
		"shape", cfg.Shape,
		"encoding", cfg.Encoding,
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	fleet, err := config.LoadFleet(cfg.FleetFile)
	if err != nil {
		slog.Error("Failed to load fleet", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	var publisher producer.Publisher
	if mockMode {
		slog.Info("Using mock mode - events will be logged but not sent to Kafka")
		publisher = producer.NewMock(cfg.Topic, cfg.Encoding)
	} else {
		kafkaProd, err := producer.New(cfg.KafkaBrokers, cfg.Topic, cfg.Encoding)
		if err != nil {
			slog.Error("Failed to create Kafka producer", "error", err)
			slog.Info("Tip: Start Kafka with 'docker compose up -d' or use --mock flag to test without Kafka")
			os.Exit(1)
		}
		publisher = kafkaProd
	}
	defer publisher.Close()

	redisClient := connectMetricsRedis(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}
	collector := metrics.NewCollector(serviceName, redisClient)
	collector.Start(ctx)
	defer collector.Stop()

	gen := generator.New(fleet, cfg.Seed, cfg.Shape)
	slog.Info("Fleet loaded", "robots", gen.Size())

	proc := processor.NewProcessor(gen, publisher, &cfg, collector)
	if err := proc.Process(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Simulation failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Telemetry simulator completed successfully")
}

// connectMetricsRedis returns nil when Redis is not configured, which keeps
// the collector in memory.
func connectMetricsRedis(ctx context.Context) *redis.Client {
	redisCfg := shared.RedisConfigFromEnv()
	opts, err := redisCfg.Options()
	if err != nil {
		slog.Info("Redis not configured, metrics stay in memory")
		return nil
	}
	client, err := shared.ConnectRedis(ctx, opts)
	if err != nil {
		slog.Warn("Failed to connect to Redis, metrics stay in memory", "addr", redisCfg.Addr(), "error", err)
		return nil
	}
	return client
}
