package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jinjor/desktop-sampler/src/audio"
	"golang.org/x/sync/errgroup"
)

const sockFileName = "/tmp/desktop-sampler.sock"

var (
	kitPath    = flag.String("kit", "", "kit file (JSON); the built-in kit is used if empty")
	sampleDir  = flag.String("samples", "samples", "sample directory for the built-in kit")
	sampleRate = flag.Float64("rate", 48000, "output sample rate")
	midiName   = flag.String("midi", "", "MIDI input port (substring of its name)")
	listMidi   = flag.Bool("list-midi", false, "list MIDI input ports and exit")
	printKit   = flag.Bool("print-kit", false, "print the kit as JSON and exit")
	useKeys    = flag.Bool("keys", false, "play notes from the terminal keyboard instead of MIDI")
	useIPC     = flag.Bool("ipc", false, "accept text commands on "+sockFileName)
	seed       = flag.Int64("seed", 0, "random seed for sample variations (0: time based)")
	verbose    = flag.Bool("v", false, "log every MIDI event")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	if *listMidi {
		names, err := audio.ListMidiIns()
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	kit, err := loadKit()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	if *printKit {
		fmt.Println(string(kit.ToJSON()))
		return
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := setupPool(ctx, kit)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Printf("%d voices ready\n", pool.Len())

	var midiIn *audio.MidiIn
	if !*useKeys {
		midiIn, err = audio.OpenMidiIn(*midiName)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
		defer func() {
			if err := midiIn.Close(); err != nil {
				log.Printf("error while closing MIDI IN: %v", err)
			}
		}()
	}

	audio, err := audio.NewAudio(pool, *sampleRate)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer audio.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		select {
		case sig := <-signalCh:
			log.Printf("Caught signal %s: shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return audio.Start(ctx)
	})
	if midiIn != nil {
		router := newRouter(audio, kit)
		g.Go(func() error {
			return midiIn.Listen(ctx, router.HandleMessage)
		})
	}
	if *useKeys {
		g.Go(func() error {
			err := playKeyboard(ctx, os.Stdin, audio, 60, 250*time.Millisecond)
			cancel()
			return err
		})
	}
	if *useIPC {
		g.Go(func() error {
			return withIPCConnection(ctx, func(conn net.Conn) error {
				return receiveCommands(ctx, conn, audio.CommandCh)
			})
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func loadKit() (*audio.Kit, error) {
	if *kitPath == "" {
		return audio.DefaultKit(*sampleDir), nil
	}
	return audio.LoadKit(*kitPath)
}

func setupPool(ctx context.Context, kit *audio.Kit) (*audio.VoicePool, error) {
	bank, ids, err := audio.LoadSamples(ctx, kit.SampleDir, kit.Files(), *sampleRate)
	if err != nil {
		return nil, err
	}
	specs, err := kit.VoiceSpecs(ids)
	if err != nil {
		return nil, err
	}
	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	return audio.NewVoicePool(specs, bank, *sampleRate, rand.New(rand.NewSource(s)))
}

func newRouter(sink audio.EventSink, kit *audio.Kit) *audio.Router {
	router := audio.NewRouter(sink, kit.Channel, kit.Controls)
	router.Verbose = *verbose
	return router
}

func withIPCConnection(ctx context.Context, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(sockFileName)
	}()
	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	log.Printf("start listening on %s...\n", sockFileName)
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn io.Reader, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		line = line[:0]
		if err != nil {
			log.Printf("invalid command: %v\n", err)
			continue
		}
		if len(command) == 0 {
			continue
		}
		select {
		case commandCh <- command:
		case <-ctx.Done():
			break loop
		}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Fields(line)
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}
