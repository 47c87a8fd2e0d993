package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aerosweep/sweep/internal/mission"
)

// DefaultInterval is used when Dependencies.Interval is not positive.
const DefaultInterval = time.Second

// StatusSource reports the latest status of a running mission.
type StatusSource interface {
	Status() mission.Status
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger         *slog.Logger
	MissionID      string
	MissionContext StatusSource
	PendingEvents  func() int
	StatusPath     string
	Interval       time.Duration
}

// Snapshot is one status report written to the status file.
type Snapshot struct {
	Time          time.Time `json:"time"`
	MissionID     string    `json:"mission_id"`
	Tick          int       `json:"tick"`
	SimTime       float64   `json:"sim_time"`
	State         string    `json:"state"`
	Detected      int       `json:"detected"`
	Deliveries    int       `json:"deliveries"`
	FieldSize     int       `json:"field_size"`
	PendingEvents int       `json:"pending_events"`
}

// Service periodically snapshots a running mission
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot reads the current mission status.
func (s *Service) Snapshot() Snapshot {
	st := s.deps.MissionContext.Status()
	snap := Snapshot{
		Time:       time.Now(),
		MissionID:  s.deps.MissionID,
		Tick:       st.Tick,
		SimTime:    st.SimTime,
		State:      st.State.String(),
		Detected:   st.Detected,
		Deliveries: st.Deliveries,
		FieldSize:  st.FieldSize,
	}
	if s.deps.PendingEvents != nil {
		snap.PendingEvents = s.deps.PendingEvents()
	}
	return snap
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}

	var statusFile *os.File
	if s.deps.StatusPath != "" {
		f, err := os.Create(s.deps.StatusPath)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("creating status file: %w", err)
		}
		statusFile = f
	}

	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				// final snapshot so short runs still leave a status behind
				s.report(statusFile)
				return
			case <-ticker.C:
				snap := s.report(statusFile)
				logger.Debug("Mission progress",
					"state", snap.State,
					"tick", snap.Tick,
					"deliveries", snap.Deliveries,
					"pending_events", snap.PendingEvents,
				)
			}
		}
	}()

	return nil
}

func (s *Service) report(statusFile *os.File) Snapshot {
	snap := s.Snapshot()
	if statusFile == nil {
		return snap
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	if err := rewrite(statusFile, append(data, '\n')); err != nil {
		s.deps.Logger.Error("Error writing status file", "error", err)
	}
	return snap
}

func rewrite(f *os.File, data []byte) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err := f.Write(data)
	return err
}

// Stop stops the status monitor and waits for the final snapshot.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
