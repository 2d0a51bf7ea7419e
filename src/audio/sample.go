package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/youpy/go-wav"
	"golang.org/x/sync/errgroup"
)

// ----- Sample Bank ----- //

// BufferID identifies a buffer in a SampleBank.
type BufferID int

// SampleBank owns every loaded buffer. Voices refer to buffers by BufferID and
// never copy them.
type SampleBank struct {
	buffers [][]float64
	names   []string
}

// NewSampleBank ...
func NewSampleBank() *SampleBank {
	return &SampleBank{}
}

// Add stores data in the bank. Empty buffers are rejected.
func (b *SampleBank) Add(name string, data []float64) (BufferID, error) {
	if len(data) == 0 {
		return -1, fmt.Errorf("sample %q is empty", name)
	}
	b.buffers = append(b.buffers, data)
	b.names = append(b.names, name)
	return BufferID(len(b.buffers) - 1), nil
}

// Buffer ...
func (b *SampleBank) Buffer(id BufferID) []float64 {
	return b.buffers[id]
}

// Name ...
func (b *SampleBank) Name(id BufferID) string {
	return b.names[id]
}

// Len ...
func (b *SampleBank) Len() int {
	return len(b.buffers)
}

func (b *SampleBank) has(id BufferID) bool {
	return id >= 0 && int(id) < len(b.buffers)
}

// ----- Loading ----- //

type decodedSample struct {
	data       []float64
	sampleRate uint32
}

// LoadSamples decodes each distinct file under dir once and stores it in a new bank.
// The returned map is keyed by the file names as given.
func LoadSamples(ctx context.Context, dir string, files []string, sampleRate float64) (*SampleBank, map[string]BufferID, error) {
	unique := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if _, ok := seen[file]; ok {
			continue
		}
		seen[file] = struct{}{}
		unique = append(unique, file)
	}

	decoded := make([]*decodedSample, len(unique))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range unique {
		i, file := i, file
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s, err := loadWav(filepath.Join(dir, file))
			if err != nil {
				return fmt.Errorf("failed to load sample %q: %w", file, err)
			}
			decoded[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	bank := NewSampleBank()
	ids := make(map[string]BufferID, len(unique))
	for i, file := range unique {
		s := decoded[i]
		if float64(s.sampleRate) != sampleRate {
			log.Printf("WARN: %s is %dHz but output is %vHz; playing without conversion\n", file, s.sampleRate, sampleRate)
		}
		id, err := bank.Add(file, s.data)
		if err != nil {
			return nil, nil, err
		}
		ids[file] = id
	}
	log.Printf("loaded %d samples from %s\n", bank.Len(), dir)
	return bank, ids, nil
}

// loadWav reads the first channel of a WAV file as floats in [-1, 1].
func loadWav(path string) (*decodedSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, err
	}
	s := &decodedSample{sampleRate: format.SampleRate}
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, sample := range samples {
			s.data = append(s.data, r.FloatValue(sample, 0))
		}
	}
	if len(s.data) == 0 {
		return nil, fmt.Errorf("no audio data in %s", path)
	}
	return s, nil
}
