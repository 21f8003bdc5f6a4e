// Package heartbeat periodically appends a timestamp line to a log file so
// operators can see the process is alive.
package heartbeat

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"admetrics/internal/pkg/logger"
	"admetrics/internal/pkg/telemetry"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	JobID = "log_timestamp_job"

	StatusRunning  = "running"
	StatusNotFound = "not_found"

	timestampLayout = "2006-01-02 15:04:05"
	nextRunLayout   = "2006-01-02 15:04:05.999999-07:00"
)

type Status struct {
	Status  string `json:"status"`
	NextRun string `json:"next_run,omitempty"`
	JobID   string `json:"job_id,omitempty"`
}

// Scheduler owns one cron instance with the heartbeat job. It is created by
// main and tied to the process lifecycle through Start and Stop.
type Scheduler struct {
	spec    string
	logPath string
	now     func() time.Time
	log     zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

func New(spec, logPath string) *Scheduler {
	return &Scheduler{
		spec:    spec,
		logPath: logPath,
		now:     time.Now,
		log:     logger.WithComponent("heartbeat"),
	}
}

// Start registers the job and starts the cron loop. Starting twice is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	c := cron.New()
	id, err := c.AddFunc(s.spec, func() {
		if err := s.Tick(); err != nil {
			s.log.Error().Err(err).Str("job_id", JobID).Msg("heartbeat write failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid heartbeat schedule %q: %w", s.spec, err)
	}

	c.Start()
	s.cron = c
	s.entryID = id

	s.log.Info().Str("job_id", JobID).Str("spec", s.spec).Str("path", s.logPath).Msg("heartbeat scheduled")
	return nil
}

// Stop halts the cron loop and waits for a running tick, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.entryID = 0
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		s.log.Info().Str("job_id", JobID).Msg("heartbeat stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	c, id := s.cron, s.entryID
	s.mu.Unlock()

	if c == nil {
		return Status{Status: StatusNotFound}
	}
	entry := c.Entry(id)
	if !entry.Valid() {
		return Status{Status: StatusNotFound}
	}

	// The cron loop fills Next asynchronously after Start.
	next := entry.Next
	if next.IsZero() {
		next = entry.Schedule.Next(s.now())
	}

	return Status{
		Status:  StatusRunning,
		NextRun: next.Format(nextRunLayout),
		JobID:   JobID,
	}
}

// Tick appends one "<ts> - INFO - Timestamp: <ts>" line to the log file.
func (s *Scheduler) Tick() error {
	ts := s.now().Format(timestampLayout)

	f, err := os.OpenFile(s.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := zerolog.New(lineWriter(f))
	line.Info().Str(zerolog.TimestampFieldName, ts).Msg("Timestamp: " + ts)

	telemetry.HeartbeatRuns.Inc()
	s.log.Info().Str("job_id", JobID).Str("timestamp", ts).Msg("heartbeat")
	return nil
}

func lineWriter(f *os.File) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprint(i)
		},
		FormatLevel: func(i interface{}) string {
			return "- " + strings.ToUpper(fmt.Sprint(i)) + " -"
		},
	}
}
