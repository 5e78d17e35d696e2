package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codeberg.org/miketth/mimicd/pkg/config"
	"codeberg.org/miketth/mimicd/pkg/mimic"
	"codeberg.org/miketth/mimicd/pkg/x11"
	"codeberg.org/miketth/mimicd/pkg/xkblayouts"
)

// defaultGroup is the layout group active while no target window is focused:
// the session's primary layout.
const defaultGroup = 0

func main() {
	err := run()
	if err != nil {
		log.Fatalf("error: %+v", err)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultPath(), "path to config file")
	window := flag.Uint("window", 0, "X11 window id to bind to")
	class := flag.String("class", "", "window class (instance.class substring) to match")
	pid := flag.Uint("pid", 0, "bind to the window owned by this process id")
	name := flag.String("name", "", "window title substring to match")
	layoutIdx := flag.Int("layout", 1, "layout group index for matched windows")
	all := flag.Bool("all", false, "keep matching windows that appear later (with -class or -name)")
	evdevXMLPath := flag.String("evdev-xml-path", "/usr/share/X11/xkb/rules/evdev.xml", "path to evdev.xml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyConfig(cfg, flag.CommandLine, window, class, pid, name, layoutIdx, all, evdevXMLPath, debug)

	log, err := newLogger(*debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	selector, err := buildSelector(*window, *class, uint32(*pid), *name, *all, log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	display, err := x11.Connect(log)
	if err != nil {
		return fmt.Errorf("connect to X: %w", err)
	}
	defer display.Close()

	keyboard, err := display.Keyboard()
	if err != nil {
		return fmt.Errorf("open keyboard: %w", err)
	}

	rulesNames, err := display.RulesNames()
	if err != nil {
		return fmt.Errorf("read layout configuration: %w", err)
	}
	groups, err := xkblayouts.ParseRulesNames(rulesNames)
	if err != nil {
		return fmt.Errorf("parse layout configuration: %w", err)
	}
	if _, _, err := groups.Group(*layoutIdx); err != nil {
		return fmt.Errorf("invalid -layout: %w", err)
	}

	registry, err := xkblayouts.ParseRegistry(*evdevXMLPath)
	if err != nil {
		log.Warnf("parse layout registry: %v (layout names will be raw codes)", err)
		registry = nil
	}

	engine := mimic.NewEngine(display, keyboard, selector, defaultGroup, *layoutIdx, log)

	if err := display.Start(); err != nil {
		return fmt.Errorf("start display watch: %w", err)
	}

	log.Infof("started mimicd: %s gets layout %s, everything else keeps %s",
		selector,
		groups.Describe(*layoutIdx, registry),
		groups.Describe(defaultGroup, registry),
	)

	errChan := make(chan error, 3)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		err := engine.Run(ctx)
		if err != nil {
			errChan <- fmt.Errorf("event loop: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		err := systemdNotifyLoop(ctx)
		if err != nil {
			errChan <- fmt.Errorf("systemd notify: %w", err)
		}
	}()

	err = <-errChan
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("shutting down")
		stop()
		wg.Wait()
		return nil
	case err != nil:
		stop()
		wg.Wait()
		return err
	}

	return nil
}

// applyConfig fills in config-file values for every flag the user did not set
// on the command line.
func applyConfig(cfg *config.Config, fs *flag.FlagSet, window *uint, class *string, pid *uint, name *string, layoutIdx *int, all *bool, evdevXMLPath *string, debug *bool) {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["window"] && cfg.Window != 0 {
		*window = uint(cfg.Window)
	}
	if !set["class"] && cfg.Class != "" {
		*class = cfg.Class
	}
	if !set["pid"] && cfg.Pid != 0 {
		*pid = uint(cfg.Pid)
	}
	if !set["name"] && cfg.Name != "" {
		*name = cfg.Name
	}
	if !set["layout"] && cfg.Layout != nil {
		*layoutIdx = *cfg.Layout
	}
	if !set["all"] && cfg.All {
		*all = true
	}
	if !set["evdev-xml-path"] && cfg.EvdevXMLPath != "" {
		*evdevXMLPath = cfg.EvdevXMLPath
	}
	if !set["debug"] && cfg.Debug {
		*debug = true
	}
}

func buildSelector(window uint, class string, pid uint32, name string, all bool, log *zap.SugaredLogger) (mimic.Selector, error) {
	given := 0
	for _, ok := range []bool{window != 0, class != "", pid != 0, name != ""} {
		if ok {
			given++
		}
	}
	if given == 0 {
		return mimic.Selector{}, errors.New("one of -window, -class, -pid or -name is required")
	}
	if given > 1 {
		return mimic.Selector{}, errors.New("-window, -class, -pid and -name are mutually exclusive")
	}

	switch {
	case window != 0:
		if all {
			log.Warn("-all has no effect with -window, ignoring")
		}
		return mimic.ByID(mimic.WindowID(window)), nil
	case class != "":
		return mimic.ByClass(class, all), nil
	case pid != 0:
		if all {
			log.Warn("-all has no effect with -pid, ignoring")
		}
		return mimic.ByPid(pid), nil
	default:
		return mimic.ByName(name, all), nil
	}
}

func systemdNotifyLoop(ctx context.Context) error {
	// tell systemd that we're ready
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		return nil
	}

	_, _ = daemon.SdNotify(false, "STATUS=Keeping layouts in lockstep with focus ⌨️")

	// notify watchdog
	t, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	// if watchdog is not enabled, we don't need to notify it
	if t == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-time.After(t / 2):
			_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			if err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	loggerConfig := zap.NewDevelopmentConfig()

	loggerConfig.OutputPaths = []string{"stdout"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !debug {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}
