package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/tonobo/autopilot"
	"github.com/tonobo/autopilot/api"
	"github.com/tonobo/autopilot/bridge"
	"github.com/tonobo/autopilot/render"
	"github.com/tonobo/autopilot/trace"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	serveAddr  = flag.String("serve", ":8080", "HTTP listen address")
	move       = flag.Bool("move", false, "Read one snapshot from stdin and print the move")
	wsURL      = flag.String("ws", "", "Websocket URL of the capture/input helper; runs sessions")
	sessions   = flag.Int("sessions", 1, "Sessions to play with -ws, 0 for no limit")
	traceDir   = flag.String("trace", "", "Directory for per-session decision traces")
	view       = flag.Bool("view", false, "Draw the board in the terminal while playing")
	timeout    = flag.Duration("timeout", 2*time.Second, "Per-request timeout towards the helper")
)

func main() {
	flag.Parse()
	logger := log.New(os.Stderr, "[autopilot] ", log.LstdFlags|log.Lmicroseconds)

	cfg := autopilot.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = autopilot.LoadConfig(*configPath); err != nil {
			logger.Fatalf("config: %v", err)
		}
	}

	switch {
	case *move:
		if err := moveOnce(cfg, os.Stdin, os.Stdout); err != nil {
			logger.Fatalf("move: %v", err)
		}
	case *wsURL != "":
		if err := play(cfg, logger); err != nil {
			logger.Fatalf("play: %v", err)
		}
	default:
		logger.Printf("listening on %s", *serveAddr)
		if err := api.New(cfg, logger).Engine().Run(*serveAddr); err != nil {
			logger.Fatalf("serve: %v", err)
		}
	}
}

func moveOnce(cfg autopilot.Config, in io.Reader, out io.Writer) error {
	var s autopilot.PerceptionSnapshot
	if err := json.NewDecoder(in).Decode(&s); err != nil {
		return err
	}
	d, err := autopilot.DecideOnce(cfg, s)
	if err != nil {
		return err
	}
	autopilot.PrintGrid(os.Stderr, d.Board, d.Path)
	_, err = fmt.Fprintln(out, d.Move)
	return err
}

func play(cfg autopilot.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := bridge.Dial(ctx, *wsURL, *timeout, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	cycle, err := autopilot.NewCycle(cfg, client, client, logger)
	if err != nil {
		return err
	}
	if *traceDir != "" {
		tw := trace.NewWriter(*traceDir)
		defer tw.Close()
		cycle.Attach(tw)
	}
	if *view {
		screen, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		if err := screen.Init(); err != nil {
			return err
		}
		defer screen.Fini()
		// The screen owns the terminal; keep the log out of it.
		logger.SetOutput(io.Discard)
		cycle.Attach(render.NewView(screen))
	}

	for n := 0; *sessions == 0 || n < *sessions; n++ {
		r := cycle.Run(ctx)
		logger.Printf("session %s: %s after %d ticks, %d moves, score %d, %.1f±%.1f ticks per point",
			r.Session, r.Reason, r.Ticks, r.Moves, r.Score, r.GainMean, r.GainStdDev)
		if r.Reason == autopilot.ReasonStopped || errors.Is(r.Err, context.Canceled) {
			return nil
		}
	}
	return nil
}
