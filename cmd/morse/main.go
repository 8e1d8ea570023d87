// Package main provides the morse command-line client: encode text to Morse
// audio, decode Morse, and manage per-user settings in the local store.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/book-expert/morse-service/internal/audio"
	"github.com/book-expert/morse-service/internal/config"
	"github.com/book-expert/morse-service/internal/fileutil"
	"github.com/book-expert/morse-service/internal/userconfig"
	"github.com/spf13/cobra"
)

const (
	logFileName       = "morse-cli.log"
	configFileName    = "config.toml"
	flagConfigDesc    = "path to the TOML configuration file"
	flagUserDesc      = "numeric user ID whose settings are used"
	errFmtLoadConfig  = "failed to load configuration: %w"
	errFmtInitLogger  = "failed to initialize logger: %w"
	errFmtOpenConfigs = "failed to open user settings: %w"
)

// cliOptions holds the persistent flags shared by every subcommand.
type cliOptions struct {
	configPath string
	userID     int64
}

// session is the state a subcommand works with.
type session struct {
	cfg     *config.Config
	log     *logger.Logger
	configs *userconfig.Store
	synth   *audio.Synthesizer
	userID  string
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "morse",
		Short:         "Encode text to Morse code audio and decode Morse code",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", filepath.Join(fileutil.StateDir(), configFileName), flagConfigDesc)
	rootCmd.PersistentFlags().Int64Var(&opts.userID, "user", int64(os.Getuid()), flagUserDesc)

	rootCmd.AddCommand(newEncodeCmd(opts))
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// open loads the configuration, logger, and user settings store.
func (o *cliOptions) open(ctx context.Context) (*session, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, fmt.Errorf(errFmtLoadConfig, err)
	}

	err = cfg.EnsureDirectories()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return nil, fmt.Errorf(errFmtInitLogger, err)
	}

	configs, err := userconfig.Open(ctx, userconfig.NewFileBackend(cfg.Store.Path), cfg.Defaults.UserConfig(), log)
	if err != nil {
		_ = log.Close()

		return nil, fmt.Errorf(errFmtOpenConfigs, err)
	}

	synth, err := audio.NewSynthesizer(cfg.Audio.SampleRate)
	if err != nil {
		_ = log.Close()

		return nil, err
	}

	return &session{
		cfg:     cfg,
		log:     log,
		configs: configs,
		synth:   synth,
		userID:  userconfig.UserID(o.userID),
	}, nil
}

func (s *session) close() {
	closeErr := s.log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
	}
}
