package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jbensmann/chordkeys/config"
	"github.com/jbensmann/chordkeys/keyboard"
	"github.com/jbensmann/chordkeys/remap"
	"github.com/jbensmann/chordkeys/virtual"
	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
)

const version = "0.1.0"

const (
	defaultConfigFile   = ".config/chordkeys/config.yaml"
	virtualKeyboardName = "chordkeys keyboard"
	virtualPointerName  = "chordkeys pointer"
)

var opts struct {
	Version    bool   `short:"v" long:"version" description:"Show the version"`
	Debug      bool   `short:"d" long:"debug" description:"Show verbose debug information"`
	ConfigFile string `short:"c" long:"config" description:"The config file"`
	LogFile    string `short:"l" long:"log-file" description:"Also write the log to this file"`
}

func main() {
	var err error

	_, err = flags.Parse(&opts)
	if err != nil {
		os.Exit(1)
	}

	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	// init logging
	log.SetOutput(os.Stdout)
	setDebug(opts.Debug)

	// if no config file is given, use the default one
	configFile := opts.ConfigFile
	if configFile == "" {
		u, err := user.Current()
		if err != nil {
			exitError(err, "Failed to get the current user")
		}
		configFile = filepath.Join(u.HomeDir, defaultConfigFile)
	}

	log.Debugf("Using config file: %s", configFile)
	conf, err := config.ReadConfig(configFile)
	if err != nil {
		exitError(err, "Failed to read the config file")
	}
	setDebug(opts.Debug || conf.Debug)

	logFile := opts.LogFile
	if logFile == "" {
		logFile = conf.LogFile
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			exitError(err, "Failed to open the log file")
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	// check if another instance is already running
	for _, device := range keyboard.FindKeyboards() {
		if device.Name == virtualKeyboardName {
			exitError(nil, "Found a keyboard device with name "+virtualKeyboardName+
				", which probably means that another instance of chordkeys is already running")
		}
	}

	// init virtual keyboard and pointer
	virtualKeyboard, err := virtual.NewKeyboard(virtualKeyboardName, conf.TextLayout)
	if err != nil {
		exitError(err, "Failed to init the virtual keyboard")
	}
	defer virtualKeyboard.Close()

	var cursor remap.CursorMover
	pointer, err := virtual.NewPointer(conf, virtualPointerName)
	if err != nil {
		log.Warnf("Failed to init the virtual pointer, cursor combos are disabled: %v", err)
	} else {
		defer pointer.Close()
		cursor = pointer
	}

	engine := remap.New(conf, virtualKeyboard, cursor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if pointer != nil {
		go pointer.Run(ctx)
	}
	go tickLoop(ctx, engine, time.Duration(conf.TickInterval)*time.Millisecond)

	discovery := keyboard.NewDiscovery(conf.Devices, []string{virtualKeyboardName, virtualPointerName},
		engine, virtualKeyboard)
	err = discovery.Run(ctx)
	discovery.Close()
	// nothing must stay pressed once the physical keyboards are released
	virtualKeyboard.ReleaseAll()
	if err != nil {
		exitError(err, "Failed to watch the keyboard devices")
	}
	log.Info("Exiting")
}

// tickLoop drives the time based decisions of the engine.
func tickLoop(ctx context.Context, engine *remap.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.Tick()
		}
	}
}

func setDebug(debug bool) {
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func exitError(err error, msg string) {
	if err != nil {
		log.Errorf(msg+": %v", err)
	} else {
		log.Error(msg)
	}
	log.Error("Exiting")
	os.Exit(1)
}
