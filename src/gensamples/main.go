package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/youpy/go-wav"
	"golang.org/x/sync/errgroup"
)

const (
	numBass        = 8
	numPercussion  = 8
	numVariants    = 3
	bitsPerSample  = 16
	bassSeconds    = 2.0
	percSeconds    = 0.3
	firstBassNote  = 36
	baseFreq       = 440.0
	generatedLevel = 0.8
)

var sampleRate = flag.Int("rate", 48000, "sample rate of the generated files")

func main() {
	flag.Parse()
	dir := flag.Arg(0)
	if dir == "" {
		log.Fatalf("usage: gensamples [-rate N] DIR")
	}
	log.SetFlags(log.Lshortfile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	if err := generateAll(context.Background(), dir, *sampleRate); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully generated samples.")
}

func generateAll(ctx context.Context, dir string, rate int) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < numBass; i++ {
		i := i
		g.Go(func() error {
			data := makeBass(firstBassNote+i, rate)
			return save(ctx, filepath.Join(dir, fmt.Sprintf("bass%d.wav", i+1)), data, rate)
		})
	}
	for i := 0; i < numPercussion; i++ {
		for v := 0; v < numVariants; v++ {
			i, v := i, v
			g.Go(func() error {
				data := makePercussion(i, v, rate)
				return save(ctx, filepath.Join(dir, fmt.Sprintf("percussion%d_%d.wav", i+1, v+1)), data, rate)
			})
		}
	}
	return g.Wait()
}

func save(ctx context.Context, path string, data []float64, rate int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := writeWav(path, data, rate); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Printf("saved %s\n", path)
	return nil
}

func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}

func calcPartialSawAtPhase(n int, phase float64) float64 {
	x := float64(n)
	return math.Sin(x*phase) / x
}

// makeBass renders a band-limited saw at note with an exponential decay.
func makeBass(note int, rate int) []float64 {
	freq := noteToFreq(note)
	partials := int(float64(rate) / 2 / freq)
	length := int(bassSeconds * float64(rate))
	data := make([]float64, length)
	for i := range data {
		t := float64(i) / float64(rate)
		phase := 2.0 * math.Pi * freq * t
		value := 0.0
		for n := 1; n <= partials; n++ {
			value += calcPartialSawAtPhase(n, phase)
		}
		data[i] = value * 2 / math.Pi * math.Exp(-t/0.8)
	}
	normalize(data, generatedLevel)
	return data
}

// makePercussion renders a noise burst over a falling tone. Each variant gets its own
// noise seed and a slightly different pitch and decay.
func makePercussion(index int, variant int, rate int) []float64 {
	rnd := rand.New(rand.NewSource(int64(index*numVariants + variant + 1)))
	freq := 60.0*float64(index+1) + 7*float64(variant)
	decay := 0.04 + 0.01*float64(variant)
	noiseLevel := float64(index) / float64(numPercussion-1)
	length := int(percSeconds * float64(rate))
	data := make([]float64, length)
	phase := 0.0
	for i := range data {
		t := float64(i) / float64(rate)
		phase += 2.0 * math.Pi * freq * (1 + 2*math.Exp(-t/0.01)) / float64(rate)
		tone := math.Sin(phase)
		noise := rnd.Float64()*2 - 1
		data[i] = ((1-noiseLevel)*tone + noiseLevel*noise) * math.Exp(-t/decay)
	}
	normalize(data, generatedLevel)
	return data
}

func normalize(data []float64, level float64) {
	peak := 0.0
	for _, v := range data {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak == 0 {
		return
	}
	for i := range data {
		data[i] *= level / peak
	}
}

func writeWav(path string, data []float64, rate int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	samples := make([]wav.Sample, len(data))
	for i, v := range data {
		samples[i].Values[0] = int(v * math.MaxInt16)
	}
	w := wav.NewWriter(file, uint32(len(samples)), 1, uint32(rate), bitsPerSample)
	if err := w.WriteSamples(samples); err != nil {
		return err
	}
	return file.Close()
}
