package transcode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/voicevo/algorithms/common"
	"github.com/RyanBlaney/voicevo/logging"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	// ErrInvalidWAV is returned for files that are not RIFF/WAVE PCM.
	ErrInvalidWAV = errors.New("not a valid PCM WAV file")
	// ErrUnsupportedFormat is returned for non-integer encodings such as IEEE float.
	ErrUnsupportedFormat = errors.New("unsupported WAV sample format")
	// ErrNotMono is returned for recordings with more than one channel.
	ErrNotMono = errors.New("recording must be mono")
	// ErrUnsupportedBitDepth is returned for sample widths other than 16, 24 or 32 bits.
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")
)

const (
	recordingBitDepth = 16

	// WAVE_FORMAT_PCM
	formatPCM = 1
)

// AudioData is a decoded mono recording with samples in [-1, 1].
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	BitDepth   int           `json:"bit_depth"`
	Duration   time.Duration `json:"duration"`
}

// LoadWAV reads a mono integer PCM WAV file.
func LoadWAV(path string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "wav_decoder",
		"function":  "LoadWAV",
		"filename":  path,
	})

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	logger.Debug("Recording loaded", logging.Fields{
		"sample_rate": data.SampleRate,
		"bit_depth":   data.BitDepth,
		"duration":    data.Duration,
		"peak_db":     fmt.Sprintf("%.1f", common.PeakdB(data.PCM)),
	})
	return data, nil
}

// DecodeWAV decodes a mono integer PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (*AudioData, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if decoder.WavAudioFormat != formatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}
	if decoder.NumChans != 1 {
		return nil, fmt.Errorf("%w: got %d channels", ErrNotMono, decoder.NumChans)
	}

	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read PCM: %w", err)
	}

	scale := float64(int64(1) << (bitDepth - 1))
	pcm := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		pcm[i] = float64(v) / scale
	}

	sampleRate := int(decoder.SampleRate)
	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   1,
		BitDepth:   bitDepth,
		Duration:   samplesDuration(len(pcm), sampleRate),
	}, nil
}

// SaveWAV writes samples as a 16-bit mono WAV file, creating parent
// directories as needed. Samples outside [-1, 1] are clipped.
func SaveWAV(path string, samples []float64, sampleRate int) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// EncodeWAV writes samples as 16-bit mono PCM.
func EncodeWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	encoder := wav.NewEncoder(w, sampleRate, recordingBitDepth, 1, 1)

	ints := make([]int, len(samples))
	for i, s := range samples {
		s = max(-1, min(1, s))
		ints[i] = int(s * 32767)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           ints,
		SourceBitDepth: recordingBitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	return encoder.Close()
}

func samplesDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(sampleRate) * float64(time.Second))
}
