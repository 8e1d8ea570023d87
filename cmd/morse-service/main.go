// main package for the morse-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/morse-service/internal/audio"
	"github.com/book-expert/morse-service/internal/config"
	"github.com/book-expert/morse-service/internal/objectstore"
	"github.com/book-expert/morse-service/internal/userconfig"
	"github.com/book-expert/morse-service/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "morse-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

// openBackend selects the user settings backend named in the configuration.
func openBackend(cfg *config.Config, jetstreamContext nats.JetStreamContext) (userconfig.Backend, error) {
	if cfg.Store.Backend == config.BackendKV {
		backend, err := userconfig.NewKVBackend(jetstreamContext, cfg.NATS.UserConfigBucket, cfg.Store.KVKey)
		if err != nil {
			return nil, err
		}

		return backend, nil
	}

	return userconfig.NewFileBackend(cfg.Store.Path), nil
}

func subjects(cfg config.NATSConfig) worker.Subjects {
	return worker.Subjects{
		Encode:     cfg.EncodeSubject,
		Decode:     cfg.DecodeSubject,
		ConfigGet:  cfg.ConfigGetSubject,
		ConfigSet:  cfg.ConfigSetSubject,
		ConfigList: cfg.ConfigListSubject,
		ConfigKeys: cfg.ConfigKeysSubject,
	}
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	err = cfg.EnsureDirectories()
	if err != nil {
		bootstrapLog.Error("Failed to create directories: %v", err)

		return err
	}

	// 3. Switch to the configured log directory
	log, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return err
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Connect to NATS and bind the storage buckets
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		log.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	audioStore, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		log.Error("Failed to bind audio bucket: %v", err)

		return err
	}

	backend, err := openBackend(cfg, jetstreamContext)
	if err != nil {
		log.Error("Failed to open user settings backend: %v", err)

		return err
	}

	configs, err := userconfig.Open(ctx, backend, cfg.Defaults.UserConfig(), log)
	if err != nil {
		log.Error("Failed to load user settings: %v", err)

		return err
	}

	synth, err := audio.NewSynthesizer(cfg.Audio.SampleRate)
	if err != nil {
		return err
	}

	// 5. Serve requests until interrupted
	morseWorker, err := worker.NewNatsWorker(natsConnection, subjects(cfg.NATS), audioStore, configs, synth, log)
	if err != nil {
		return err
	}

	log.System("Morse-Service initialized. Encode requests on subject: %s", cfg.NATS.EncodeSubject)

	err = morseWorker.Run(ctx)
	if err != nil {
		log.Error("Worker stopped with error: %v", err)

		return err
	}

	log.System("Morse-Service stopped.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
