// Command picoemu runs a board program against the simulated MicroPython
// machine and writes the event stream to stdout for the host visualizer.
// Logs go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/micro-nova/pico-emu/internal/api"
	"github.com/micro-nova/pico-emu/internal/auth"
	"github.com/micro-nova/pico-emu/internal/config"
	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/hardware"
	"github.com/micro-nova/pico-emu/internal/identity"
	"github.com/micro-nova/pico-emu/internal/machine"
	"github.com/micro-nova/pico-emu/internal/runner"
	"github.com/micro-nova/pico-emu/internal/scripts"
	"github.com/micro-nova/pico-emu/internal/state"
	"github.com/micro-nova/pico-emu/internal/zeroconf"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		script     = flag.String("script", "blink", "built-in script to run (see -list)")
		board      = flag.String("board", "", "board variant: pico, pico_w, pico2w, esp32 (default from config)")
		cfgDir     = flag.String("config-dir", "", "config directory (default: workspace root)")
		inputs     = flag.String("inputs", "", "simulation inputs JSON file, reloaded on change")
		apiAddr    = flag.String("api", "", "control API listen address, e.g. :8765 (default from config)")
		apiKey     = flag.String("api-key", "", "require this key on the control API")
		mdns       = flag.Bool("mdns", false, "advertise the control API over mDNS")
		serialDev  = flag.String("serial", "", "also write the event stream to this serial device")
		serialBaud = flag.Int("serial-baud", 115200, "baud rate for -serial")
		mirror     = flag.String("mirror", "", "mirror pins to host GPIO, e.g. LED=GPIO17,GP15=GPIO27")
		save       = flag.Bool("save", false, "persist the effective options to picoemu.json")
		list       = flag.Bool("list", false, "list built-in scripts and exit")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if *list {
		for _, d := range scripts.All() {
			fmt.Printf("%-10s %s\n", d.Name, d.Description)
		}
		return 0
	}

	demo, ok := scripts.Lookup(*script)
	if !ok {
		slog.Error("unknown script", "name", *script)
		return 2
	}

	// Resolve config directory
	if *cfgDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			slog.Error("cannot determine working directory", "err", err)
			return 1
		}
		*cfgDir = runner.FindWorkspaceRoot(cwd)
	}

	// Options: file first, explicit flags win
	cfgStore := config.NewJSONStore(*cfgDir)
	opts, err := cfgStore.Load()
	if err != nil {
		slog.Error("cannot load config", "path", cfgStore.Path(), "err", err)
		return 1
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "board":
			opts.Board = *board
		case "api":
			opts.APIAddr = *apiAddr
		case "mdns":
			opts.MDNS = *mdns
		}
	})
	if !slices.Contains(config.Boards, opts.Board) {
		slog.Error("unknown board", "board", opts.Board, "want", config.Boards)
		return 2
	}
	if *save {
		if err := cfgStore.Save(opts); err != nil {
			slog.Warn("failed to save config", "err", err)
		} else {
			slog.Info("options saved", "path", cfgStore.Path())
		}
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Event stream: stdout, plus in-process sinks
	ch := events.NewChannel(os.Stdout)
	bus := events.NewBus()
	ch.AddObserver(bus.Publish)

	if *serialDev != "" {
		port, err := events.OpenSerial(*serialDev, *serialBaud)
		if err != nil {
			slog.Error("serial sink failed", "err", err)
			return 1
		}
		defer port.Close()
		ch.AddObserver(events.WriteTo(port))
		slog.Info("serial sink attached", "dev", *serialDev, "baud", *serialBaud)
	}

	if *mirror != "" {
		mapping, err := hardware.ParseMapping(*mirror)
		if err != nil {
			slog.Error("bad -mirror value", "err", err)
			return 2
		}
		m, err := hardware.OpenMirror(mapping)
		if err != nil {
			slog.Error("gpio mirror failed", "err", err)
			return 1
		}
		ch.AddObserver(m.Observe)
		slog.Info("gpio mirror attached", "pins", m.Pins())
	}

	// Session
	store := state.New(ch, state.Options{ThrottleWindow: opts.ThrottleWindow()})
	b := machine.NewBoard(store, machine.Options{
		Name:         opts.Board,
		UARTLoopback: opts.UARTLoopback,
		TimerPolicy:  machine.TimerPolicy(opts.TimerPolicy),
		Seed:         opts.Seed,
		Console:      os.Stdout,
	})

	session := uuid.NewString()
	info := func() identity.Info {
		return identity.Info{
			Hostname: identity.GetHostname(),
			Version:  identity.GetVersionFromDir(*cfgDir),
			Board:    b.Name(),
			Session:  session,
		}
	}

	// Control API
	var srv *http.Server
	if opts.APIAddr != "" {
		authSvc, err := auth.NewService(*cfgDir, *apiKey)
		if err != nil {
			slog.Error("auth service initialization failed", "err", err)
			return 1
		}
		defer authSvc.Close()

		ln, err := net.Listen("tcp", opts.APIAddr)
		if err != nil {
			slog.Error("api listen failed", "addr", opts.APIAddr, "err", err)
			return 1
		}
		srv = &http.Server{
			Handler:      api.NewRouter(b, authSvc, bus, info),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0, // 0 = no timeout (needed for SSE)
			IdleTimeout:  120 * time.Second,
		}
		go func() {
			slog.Info("control API listening", "addr", ln.Addr().String(), "open", authSvc.IsOpenMode())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("server error", "err", err)
			}
		}()

		if opts.MDNS {
			port := 0
			if _, p, err := net.SplitHostPort(ln.Addr().String()); err == nil {
				port, _ = strconv.Atoi(p)
			}
			zc := zeroconf.New(zeroconf.InstanceName(identity.GetHostname(), session), port, info().TXT())
			go func() {
				if err := zc.Start(ctx); err != nil {
					slog.Warn("zeroconf failed", "err", err)
				}
			}()
		}
	} else if opts.MDNS {
		slog.Warn("mdns requested without a control API address, ignoring")
	}

	// Per-run setup applied after the session reset
	var runOpts []runner.Option
	if !opts.AutoRespond {
		runOpts = append(runOpts, runner.WithPrepare(func(s *state.Store) error {
			s.SetI2CAutoRespond(false)
			return nil
		}))
	}
	var watcher *config.Watcher
	if *inputs != "" {
		runOpts = append(runOpts, runner.WithPrepare(func(s *state.Store) error {
			w, err := config.NewWatcher(*inputs, s)
			if err != nil {
				return err
			}
			watcher = w
			return nil
		}))
	}

	runOpts = append(runOpts, runner.WithSession(session))
	res := runner.Run(ctx, b, demo.Name, demo.Run, runOpts...)
	if res.Err != nil {
		slog.Debug("script ended", "status", res.Status, "err", res.Err)
	}

	// Shutdown
	if watcher != nil {
		watcher.Close()
	}
	if srv != nil {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Warn("server shutdown error", "err", err)
		}
		shutCancel()
	}
	return res.Code
}
