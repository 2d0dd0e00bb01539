// Package monitor periodically reports playback progress to the log and to a
// status file that external tools can poll.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/acmitools/replay/internal/logging"
)

// Status is one snapshot of playback state.
type Status struct {
	Recording     string  `json:"recording"`
	Time          float64 `json:"time"`
	Duration      float64 `json:"duration"`
	Speed         float64 `json:"speed"`
	Playing       bool    `json:"playing"`
	ActiveObjects int     `json:"activeObjects"`
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager

	// Status returns the current snapshot. It must be safe to call from the
	// monitor goroutine.
	Status func() Status

	StatusFilePath string
	Interval       time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine")

		var statusFile *os.File
		if s.deps.StatusFilePath != "" {
			var err error
			statusFile, err = os.Create(s.deps.StatusFilePath)
			if err != nil {
				logger.Error("Error creating status file", "error", err, "path", s.deps.StatusFilePath)
			} else {
				defer statusFile.Close()
			}
		}

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				status := s.deps.Status()

				logger.Debug("Playback status",
					"recording", status.Recording,
					"time", status.Time,
					"duration", status.Duration,
					"playing", status.Playing,
					"activeObjects", status.ActiveObjects)

				if statusFile != nil {
					statusJSON, err := json.MarshalIndent(status, "", "  ")
					if err != nil {
						statusJSON = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
					}
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.Write(append(statusJSON, '\n'))
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
