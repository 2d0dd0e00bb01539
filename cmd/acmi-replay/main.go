package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/acmitools/replay/internal/config"
	"github.com/acmitools/replay/internal/dispatcher"
	"github.com/acmitools/replay/internal/logging"
	"github.com/acmitools/replay/internal/session"

	"github.com/spf13/viper"
)

// Version can be set at build time via ldflags.
var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"

	AppName string = "acmi_replay"
)

var (
	SessionStartTime time.Time = time.Now()

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// Session carries the current command and recording into every log record
	Session *session.Context

	LogFilePath string
	LogFile     *os.File
)

func setup() {
	Session = session.NewContext()

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{Level: viper.GetString("logLevel")})
	Logger = SlogManager.Logger()

	if err := config.Load("."); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.Mkdir(logsDir, 0755)
	}

	LogFilePath = logging.LogFilePath(logsDir, AppName, SessionStartTime)

	var err error
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
	}

	var gelfWriter io.Writer
	if viper.GetBool("graylog.enabled") {
		w, err := logging.NewGelfWriter(viper.GetString("graylog.address"))
		if err != nil {
			Logger.Error("Failed to connect GELF writer", "error", err, "address", viper.GetString("graylog.address"))
		} else {
			gelfWriter = w
		}
	}

	SlogManager.Setup(logging.Options{
		File:    LogFile,
		Gelf:    gelfWriter,
		Level:   viper.GetString("logLevel"),
		Session: Session.Attrs,
	})
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath)
}

// registerCommands wires every subcommand into the dispatcher.
func registerCommands(d *dispatcher.Dispatcher) {
	d.Register("info", func(e dispatcher.Event) (any, error) {
		return nil, runInfo(e.Args)
	}, dispatcher.Logged())

	d.Register("export", func(e dispatcher.Event) (any, error) {
		return nil, runExport(e.Args)
	}, dispatcher.Logged())

	d.Register("index", func(e dispatcher.Event) (any, error) {
		return nil, runIndex(e.Args)
	}, dispatcher.Logged())

	d.Register("list", func(e dispatcher.Event) (any, error) {
		return nil, runList()
	}, dispatcher.Logged())

	d.Register("play", func(e dispatcher.Event) (any, error) {
		return nil, runPlay(e.Args)
	}, dispatcher.Logged())

	d.Register("version", func(e dispatcher.Event) (any, error) {
		fmt.Println(Version, BuildDate)
		return nil, nil
	})
}

func usage() {
	fmt.Printf("acmi-replay %s (%s)\n\n", Version, BuildDate)
	fmt.Println("Usage: acmi-replay <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  info <recording>      parse a recording and print its summary")
	fmt.Println("  export <recording>    write all object tracks as GeoJSON")
	fmt.Println("  index <recording...>  store recording metadata in the configured backend")
	fmt.Println("  list                  list indexed recordings")
	fmt.Println("  play <recording>      headless playback, prints pose snapshots")
}

func main() {
	setup()

	eventDispatcher := dispatcher.New(Logger)
	registerCommands(eventDispatcher)

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	command := strings.ToLower(args[0])
	if !eventDispatcher.HasHandler(command) {
		usage()
		os.Exit(2)
	}

	Session.SetCommand(command)
	if _, err := eventDispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args[1:],
		Timestamp: time.Now(),
	}); err != nil {
		Logger.Error("Command failed", "error", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
