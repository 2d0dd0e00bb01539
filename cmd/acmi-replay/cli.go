package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/acmitools/replay/internal/api"
	"github.com/acmitools/replay/internal/config"
	"github.com/acmitools/replay/internal/export"
	"github.com/acmitools/replay/internal/influx"
	"github.com/acmitools/replay/internal/loader"
	"github.com/acmitools/replay/internal/monitor"
	"github.com/acmitools/replay/internal/parser"
	"github.com/acmitools/replay/internal/sim"
	"github.com/acmitools/replay/internal/storage"
	"github.com/acmitools/replay/internal/storage/memory"
	postgresstorage "github.com/acmitools/replay/internal/storage/postgres"
	sqlitestorage "github.com/acmitools/replay/internal/storage/sqlite"
	"github.com/acmitools/replay/internal/worker"
	"github.com/acmitools/replay/pkg/core"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// loadRecording reads, unwraps and parses one recording file.
func loadRecording(path string) (*core.Dataset, parser.Stats, error) {
	Session.SetRecording(loader.RecordingName(path))

	text, err := loader.Load(path)
	if err != nil {
		return nil, parser.Stats{}, err
	}
	return parser.NewParser(Logger).Parse(text)
}

// openBackend builds the storage backend selected in config.
func openBackend() (storage.Backend, error) {
	cfg := config.GetStorageConfig()
	var (
		backend storage.Backend
		err     error
	)
	switch cfg.Type {
	case "memory":
		backend = memory.New(cfg.Memory)
	case "sqlite":
		backend, err = sqlitestorage.New(cfg.SQLite, SlogManager)
	case "postgres":
		backend, err = postgresstorage.New(SlogManager)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, err
	}
	return backend, nil
}

func runInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no recording provided")
	}

	dataset, stats, err := loadRecording(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Recording:       %s\n", loader.RecordingName(args[0]))
	fmt.Printf("Reference time:  %s\n", dataset.ReferenceTime.Format(time.RFC3339))
	fmt.Printf("Reference point: lon %.4f lat %.4f\n", dataset.ReferenceLongitude, dataset.ReferenceLatitude)
	fmt.Printf("Time span:       %.2f .. %.2f (%.2fs)\n", dataset.StartTime, dataset.EndTime, dataset.EndTime-dataset.StartTime)
	fmt.Printf("Objects:         %d\n", len(dataset.Objects))

	headerKeys := make([]string, 0, len(dataset.Headers))
	for k := range dataset.Headers {
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)
	for _, k := range headerKeys {
		fmt.Printf("  %s = %s\n", k, dataset.Headers[k])
	}

	fmt.Printf("Parsed %d lines (%d frames, %d samples, %d property updates, %d removals, %d dropped) in %s\n",
		stats.Lines, stats.Frames, stats.PositionSamples, stats.PropertyUpdates,
		stats.Removals, stats.DroppedLines, stats.ParseDuration)
	return nil
}

func runExport(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no recording provided")
	}

	dataset, stats, err := loadRecording(args[0])
	if err != nil {
		return err
	}

	name := loader.RecordingName(args[0])
	path, err := export.Write(dataset, name, config.GetExportConfig())
	if err != nil {
		return err
	}
	Logger.Info("Exported recording", "path", path)
	fmt.Println("Wrote", path)

	if viper.GetBool("api.enabled") {
		client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.key"))
		if err := client.Healthcheck(); err != nil {
			Logger.Warn("Replay frontend is offline, skipping upload", "error", err)
			return nil
		}
		meta := api.UploadMetadata{
			Title:       dataset.Headers["Title"],
			DataSource:  dataset.Headers["DataSource"],
			Duration:    dataset.EndTime - dataset.StartTime,
			ObjectCount: stats.Objects,
		}
		if err := client.Upload(path, meta); err != nil {
			return fmt.Errorf("failed to upload export: %w", err)
		}
		Logger.Info("Uploaded export", "path", path, "server", viper.GetString("api.serverUrl"))
		fmt.Println("Uploaded", filepath.Base(path))
	}
	return nil
}

func runIndex(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no recordings provided")
	}

	backend, err := openBackend()
	if err != nil {
		return err
	}
	defer backend.Close()

	var influxManager *influx.Manager
	if viper.GetBool("influx.enabled") {
		influxManager = influx.NewManager(
			zerolog.New(os.Stderr).With().Timestamp().Logger(),
			filepath.Join(viper.GetString("logsDir"), "influx_backup.gz"),
		)
		if err := influxManager.Connect(); err != nil {
			Logger.Warn("InfluxDB unavailable, ingest stats go to backup file", "error", err)
		}
		influxManager.CreateWriters()
	}

	manager := worker.NewManager(worker.Dependencies{LogManager: SlogManager}, backend)
	results := manager.IngestAll(args, viper.GetInt("ingest.workers"))

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "failed: %s: %v\n", r.Path, r.Err)
			continue
		}
		fmt.Printf("Indexed %s (%d objects, %d samples)\n", r.Name, r.Stats.Objects, r.Stats.PositionSamples)

		if influxManager != nil {
			point := influx.IngestPoint(r.Name, r.Stats, r.IngestedAt)
			if err := influxManager.WritePoint(context.Background(), influx.BucketIngest, point); err != nil {
				Logger.Warn("Failed to write ingest stats", "error", err)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d recordings failed", failed, len(results))
	}
	return nil
}

func runList() error {
	backend, err := openBackend()
	if err != nil {
		return err
	}
	defer backend.Close()

	summaries, err := backend.ListRecordings()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No recordings indexed.")
		return nil
	}

	for _, s := range summaries {
		fmt.Printf("%-40s %s  %8.2fs  %d objects\n",
			s.Name, s.ReferenceTime.Format(time.RFC3339), s.EndTime-s.StartTime, s.Objects)
	}
	return nil
}

func runPlay(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no recording provided")
	}

	dataset, _, err := loadRecording(args[0])
	if err != nil {
		return err
	}

	name := loader.RecordingName(args[0])
	playCfg := config.GetPlaybackConfig()
	engine := sim.NewEngine(Logger)
	engine.Load(dataset)
	engine.SetSpeed(playCfg.Speed)
	engine.Play()

	Logger.Info("Starting playback",
		"recording", name,
		"speed", playCfg.Speed,
		"tickInterval", playCfg.TickInterval)

	// The engine is single-threaded; the monitor reads a snapshot the tick
	// loop refreshes instead of touching the engine.
	var statusMu sync.RWMutex
	status := monitor.Status{Recording: name, Duration: engine.Duration(), Speed: playCfg.Speed}

	statusMonitor := monitor.NewService(monitor.Dependencies{
		LogManager: SlogManager,
		Status: func() monitor.Status {
			statusMu.RLock()
			defer statusMu.RUnlock()
			return status
		},
		StatusFilePath: filepath.Join(viper.GetString("logsDir"), "playback_status.json"),
	})
	statusMonitor.Start()
	defer statusMonitor.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(playCfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			Logger.Info("Playback interrupted", "time", engine.Time())
			return nil
		case <-ticker.C:
			engine.Advance(playCfg.TickInterval.Seconds())
			poses := engine.Poses()
			active := printSnapshot(engine.Time(), poses)

			statusMu.Lock()
			status.Time = engine.Time()
			status.Playing = engine.Playing()
			status.ActiveObjects = active
			statusMu.Unlock()

			if !engine.Playing() {
				Logger.Info("Playback finished", "duration", engine.Duration())
				return nil
			}
		}
	}
}

// printSnapshot writes one line per active object, sorted by ID so output is
// stable enough to diff or pipe. Returns the active object count.
func printSnapshot(t float64, poses map[string]core.InterpolatedPose) int {
	ids := make([]string, 0, len(poses))
	for id, pose := range poses {
		if pose.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		pose := poses[id]
		fmt.Printf("t=%8.2f %-12s enu=(%.1f, %.1f, %.1f) hdg=%6.1f spd=%7.1f vs=%6.1f %s\n",
			t, id, pose.Position.X, pose.Position.Y, pose.Position.Z,
			pose.Heading, pose.Speed, pose.VerticalSpeed, pose.Color)
	}
	return len(ids)
}
