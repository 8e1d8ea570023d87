package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// WAV container settings: 16-bit mono PCM.
const (
	wavChannels  = 1
	wavPrecision = 2
	tempPattern  = "morse-*.wav"
)

// Format returns the beep format used for WAV export.
func (w *Waveform) Format() beep.Format {
	return beep.Format{
		SampleRate:  w.SampleRate,
		NumChannels: wavChannels,
		Precision:   wavPrecision,
	}
}

// EncodeWAV writes the waveform as a 16-bit mono PCM WAV file.
func (w *Waveform) EncodeWAV(out io.WriteSeeker) error {
	err := wav.Encode(out, w.Streamer(), w.Format())
	if err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}

	return nil
}

// WriteWAVFile writes the waveform to path, replacing any existing file.
func (w *Waveform) WriteWAVFile(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file %s: %w", path, err)
	}

	defer func() {
		closeErr := file.Close()
		if closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close wav file %s: %w", path, closeErr)
		}
	}()

	return w.EncodeWAV(file)
}

// WAVBytes renders the waveform as an in-memory WAV file. The encoder needs a
// seekable sink, so the data goes through a temp file.
func (w *Waveform) WAVBytes() ([]byte, error) {
	tempFile, err := os.CreateTemp("", tempPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for wav output: %w", err)
	}

	tempPath := tempFile.Name()

	defer func() {
		_ = os.Remove(tempPath)
	}()

	encodeErr := w.EncodeWAV(tempFile)
	closeErr := tempFile.Close()

	if encodeErr != nil {
		return nil, encodeErr
	}

	if closeErr != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", closeErr)
	}

	data, err := os.ReadFile(tempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wav data from temp file: %w", err)
	}

	return data, nil
}
