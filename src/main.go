package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jinjor/tone-synth/src/audio"
	"github.com/jinjor/tone-synth/src/control"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	sockFileName string
	httpAddr     string
	useMidi      bool
	releaseTime  float64
	stateFile    string
)

var rootCmd = &cobra.Command{
	Use:   "tone-synth",
	Short: "Polyphonic tone synthesizer",
	Long: `tone-synth renders notes through three oscillator layers
(wave -> LFO -> filter), mixes them and plays them on a pool of 8 voices.

Notes and parameter changes arrive over a unix socket, HTTP or MIDI.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&sockFileName, "socket", "/tmp/tone-synth.sock", "unix socket for the IPC control surface")
	rootCmd.Flags().StringVar(&httpAddr, "http", "", "address of the HTTP control surface (disabled when empty)")
	rootCmd.Flags().BoolVar(&useMidi, "midi", false, "listen to the first MIDI input")
	rootCmd.Flags().Float64Var(&releaseTime, "release", 0, "release time in ms (0 stops notes abruptly)")
	rootCmd.Flags().StringVar(&stateFile, "state", "", "JSON file with the initial parameters")
}

func main() {
	log.SetFlags(log.Lshortfile)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	audio, err := audio.NewAudio()
	if err != nil {
		return err
	}
	defer audio.Close()

	if stateFile != "" {
		data, err := os.ReadFile(stateFile)
		if err != nil {
			return err
		}
		if err := audio.ApplyJSON(data); err != nil {
			return err
		}
	}
	if err := audio.Update([]string{"set", "release", strconv.FormatFloat(releaseTime, 'f', -1, 64)}); err != nil {
		return err
	}

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

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return audio.Start(gctx)
	})
	if useMidi {
		g.Go(func() error {
			return receiveMidi(gctx, audio)
		})
	}
	if httpAddr != "" {
		g.Go(func() error {
			return serveHTTP(gctx, audio)
		})
	}
	g.Go(func() error {
		return withIPCConnection(gctx, func(conn net.Conn) error {
			ipc, ictx := errgroup.WithContext(gctx)
			ipc.Go(func() error {
				return receiveCommands(ictx, conn, audio.CommandCh)
			})
			ipc.Go(func() error {
				return sendReports(ictx, conn, audio)
			})
			return ipc.Wait()
		})
	})
	err = g.Wait()
	log.Println("main() ended.")
	return err
}

func receiveMidi(ctx context.Context, a *audio.Audio) error {
	for data := range audio.ListenToMidiIn(ctx) {
		a.AddMidiEvent(data)
	}
	log.Println("receiveMidi() ended.")
	return nil
}

func serveHTTP(ctx context.Context, audio *audio.Audio) error {
	server := &http.Server{
		Addr:              httpAddr,
		Handler:           control.New(audio).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("error while shutting down HTTP: %v", err)
		}
	}()
	log.Printf("HTTP control surface on %s\n", httpAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("serveHTTP() ended.")
	return nil
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
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(sockFileName)
	}()
	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	log.Printf("start listening...\n")
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
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
		if err == io.EOF || errors.Is(err, net.ErrClosed) {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := control.ParseCommand(string(line))
		line = []byte{}
		if err != nil {
			log.Printf("error: %v\n", err)
			continue
		}
		if len(command) == 0 {
			continue
		}
		commandCh <- command
		log.Printf("received: %s\n", strings.Join(command, " "))
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func sendReports(ctx context.Context, conn net.Conn, audio *audio.Audio) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			result := audio.GetFFT()
			var sb strings.Builder
			sb.WriteString("fft")
			for _, value := range result {
				sb.WriteString(" ")
				sb.WriteString(strconv.FormatFloat(value, 'f', 6, 64))
			}
			sb.WriteString("\n")
			if _, err := conn.Write([]byte(sb.String())); err != nil {
				if ctx.Err() != nil {
					break loop
				}
				return err
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
