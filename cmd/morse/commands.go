package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/morse-service/internal/fileutil"
	"github.com/book-expert/morse-service/internal/morse"
	"github.com/book-expert/morse-service/internal/userconfig"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// User-facing messages.
const (
	msgMorse        = "In Morse code: %s\n"
	msgEnglish      = "In English: %s\n"
	msgGenerated    = "Generated: %s (%s, %s)\n"
	msgUpdated      = "Configuration %s updated to %s.\n"
	msgInvalidKey   = "invalid configuration key: %s (valid keys: %s)"
	msgInvalidValue = "invalid input %q for %s, please enter a valid value"
)

func newEncodeCmd(opts *cliOptions) *cobra.Command {
	var (
		outPath string
		noAudio bool
	)

	cmd := &cobra.Command{
		Use:   "encode [text...]",
		Short: "Encode text to Morse code and write it as a WAV file",
		Long:  "Encode text to Morse code. Without arguments, each line of stdin is encoded separately.",
		RunE: func(cmd *cobra.Command, args []string) error {
			texts, err := inputLines(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			if noAudio {
				for _, text := range texts {
					fmt.Fprintf(cmd.OutOrStdout(), msgMorse, morse.Encode(text))
				}

				return nil
			}

			sess, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			for _, text := range texts {
				err = sess.encode(cmd.Context(), cmd.OutOrStdout(), text, outPath)
				if err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output WAV path (default: <output_dir>/<text>.wav)")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "print the Morse code only")

	return cmd
}

func (s *session) encode(ctx context.Context, out io.Writer, text, outPath string) error {
	for _, skipped := range morse.UnmappedCharacters(text) {
		s.log.Warn("Skipping %v", skipped)
	}

	fmt.Fprintf(out, msgMorse, morse.Encode(text))

	cfg, err := s.configs.Get(ctx, s.userID)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = filepath.Join(s.cfg.Paths.OutputDir, fileutil.WAVFileName(text))
	}

	wave, err := s.synth.Synthesize(text, cfg)
	if err != nil {
		return err
	}

	err = wave.WriteWAVFile(outPath)
	if err != nil {
		s.log.Error("Failed to write %s: %v", outPath, err)

		return err
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", outPath, err)
	}

	s.log.Info("Generated %s for user %s", outPath, s.userID)
	fmt.Fprintf(out, msgGenerated, outPath, fileutil.FormatDuration(wave.Duration()), fileutil.FormatFileSize(info.Size()))

	return nil
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [morse...]",
		Short: "Decode Morse code to text",
		Long:  "Decode Morse code written with '.' and '-'. Letters are separated by a space, words by ' / '.",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := inputLines(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			for _, line := range lines {
				fmt.Fprintf(cmd.OutOrStdout(), msgEnglish, morse.Decode(line))
			}

			return nil
		},
	}
}

func newConfigCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change your Morse audio settings",
	}

	listRun := func(cmd *cobra.Command, _ []string) error {
		sess, err := opts.open(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.close()

		settings, err := sess.configs.List(cmd.Context(), sess.userID)
		if err != nil {
			return err
		}

		tbl := newTable(cmd.OutOrStdout())
		tbl.AppendHeader(table.Row{"Key", "Value"})

		for _, setting := range settings {
			tbl.AppendRow(table.Row{setting.Key, setting.Value})
		}

		tbl.Render()

		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"show", "get"},
		Short:   "Show your current configuration",
		Args:    cobra.NoArgs,
		RunE:    listRun,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set one configuration value",
		Long:  "Set one configuration value. Keys: " + strings.Join(userconfig.Keys(), ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			key, value := args[0], args[1]

			_, err = sess.configs.Set(cmd.Context(), sess.userID, key, value)

			switch {
			case errors.Is(err, userconfig.ErrInvalidConfigKey):
				return fmt.Errorf(msgInvalidKey, key, strings.Join(userconfig.Keys(), ", "))
			case errors.Is(err, userconfig.ErrInvalidConfigValue):
				return fmt.Errorf(msgInvalidValue, value, key)
			case err != nil:
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), msgUpdated, key, strings.TrimSpace(value))

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "Describe the configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tbl := newTable(cmd.OutOrStdout())
			tbl.AppendHeader(table.Row{"Key", "Setting", "Unit", "Description"})

			for _, field := range userconfig.Fields() {
				tbl.AppendRow(table.Row{field.Key, field.Label, field.Unit, field.Description})
			}

			tbl.Render()

			return nil
		},
	})

	return cmd
}

func newTable(out io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)

	return tbl
}

// inputLines joins args into one input, or reads one input per stdin line.
func inputLines(stdin io.Reader, args []string) ([]string, error) {
	if len(args) > 0 {
		return []string{strings.Join(args, " ")}, nil
	}

	var lines []string

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}

	return lines, nil
}
