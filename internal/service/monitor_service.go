package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/careermentor/career-mentor/internal/model"
	"go.uber.org/zap"
)

// MonitorStatus is the tri-state result of polling a monitoring job.
type MonitorStatus int

const (
	MonitorRunning MonitorStatus = iota
	MonitorReady
	MonitorFailed
)

func (s MonitorStatus) String() string {
	switch s {
	case MonitorReady:
		return "ready"
	case MonitorFailed:
		return "failed"
	}
	return "running"
}

// MonitorProducer performs the timed capture/analysis and writes the
// report artifact to path before returning.
type MonitorProducer func(ctx context.Context, sessionID string, duration time.Duration, path string) error

type MonitorServiceInterface interface {
	Start(sessionID string, duration time.Duration, outDir string) (string, error)
	Status(provisionalPath string) MonitorStatus
}

// MonitorService launches one time-boxed background capture per session.
// Start returns the path the artifact will occupy once ready; callers
// poll Status until it stops reporting running. A job that fails leaves a
// sentinel file next to the provisional path so polling can distinguish
// failure from still-running.
type MonitorService struct {
	produce MonitorProducer
	mu      sync.Mutex
	active  map[string]struct{}
	logger  *zap.Logger
}

func NewMonitorService(produce MonitorProducer, logger *zap.Logger) *MonitorService {
	return &MonitorService{
		produce: produce,
		active:  make(map[string]struct{}),
		logger:  logger,
	}
}

func (s *MonitorService) Start(sessionID string, duration time.Duration, outDir string) (string, error) {
	provisionalPath := filepath.Join(outDir, fmt.Sprintf("monitoring_report_%s.pdf", sessionID))

	s.mu.Lock()
	if _, inFlight := s.active[sessionID]; inFlight {
		s.mu.Unlock()
		return "", model.ErrMonitoringActive
	}
	s.active[sessionID] = struct{}{}
	s.mu.Unlock()

	// Stale artifacts from an earlier run would read as instantly ready.
	_ = os.Remove(provisionalPath)
	_ = os.Remove(failureMarker(provisionalPath))

	go s.run(sessionID, duration, provisionalPath)

	s.logger.Info("Monitoring started",
		zap.String("sessionId", sessionID),
		zap.Duration("duration", duration),
		zap.String("provisionalPath", provisionalPath))
	return provisionalPath, nil
}

func (s *MonitorService) run(sessionID string, duration time.Duration, path string) {
	defer func() {
		s.mu.Lock()
		delete(s.active, sessionID)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), duration+30*time.Second)
	defer cancel()

	if err := s.produce(ctx, sessionID, duration, path); err != nil {
		s.logger.Error("Monitoring job failed",
			zap.String("sessionId", sessionID), zap.Error(err))
		if markerErr := os.WriteFile(failureMarker(path), []byte(err.Error()), 0o644); markerErr != nil {
			s.logger.Error("Failed to write failure marker", zap.Error(markerErr))
		}
		return
	}
	s.logger.Info("Monitoring job completed", zap.String("sessionId", sessionID))
}

// Status never errors: an absent artifact with no failure marker means
// the job is still running.
func (s *MonitorService) Status(provisionalPath string) MonitorStatus {
	if _, err := os.Stat(provisionalPath); err == nil {
		return MonitorReady
	}
	if _, err := os.Stat(failureMarker(provisionalPath)); err == nil {
		return MonitorFailed
	}
	return MonitorRunning
}

func failureMarker(path string) string {
	return path + ".failed"
}

// NewTimedCaptureProducer runs the capture window for the full duration
// and then renders the monitoring report artifact.
func NewTimedCaptureProducer(renderer ReportRendererInterface) MonitorProducer {
	return func(ctx context.Context, sessionID string, duration time.Duration, path string) error {
		select {
		case <-time.After(duration):
		case <-ctx.Done():
			return ctx.Err()
		}
		return renderer.RenderMonitoringReport(sessionID, duration, path)
	}
}
