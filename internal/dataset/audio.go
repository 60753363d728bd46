package dataset

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// AudioRef is a lazy reference to an audio file. Constructing one performs
// no I/O; the WAV is decoded only when Resolve is called, so a dataset of
// thousands of rows never holds raw samples in memory.
type AudioRef struct {
	Path string
}

// AudioClip holds decoded PCM samples from a resolved reference.
type AudioClip struct {
	Buffer     *audio.IntBuffer
	SampleRate int
	Channels   int
	BitDepth   int
}

// Resolve opens and decodes the referenced WAV file.
func (r AudioRef) Resolve() (*AudioClip, error) {
	file, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file format: " + r.Path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.Path, err)
	}

	return &AudioClip{
		Buffer:     buf,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
	}, nil
}
