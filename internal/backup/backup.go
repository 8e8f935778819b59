// Package backup makes periodic timestamped copies of the appointment data
// file and prunes copies older than the retention window.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Service struct {
	dataPath  string
	dir       string
	interval  time.Duration
	retention time.Duration
	logger    *zerolog.Logger
}

func New(dataPath, dir string, interval, retention time.Duration, logger *zerolog.Logger) *Service {
	return &Service{
		dataPath:  dataPath,
		dir:       dir,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Start runs the backup loop until the context is canceled. The first copy
// is taken shortly after startup, then on every interval tick.
func (s *Service) Start(ctx context.Context) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error().Err(err).Msg("failed to create backup directory")
		return
	}

	s.logger.Info().Str("dir", s.dir).Dur("interval", s.interval).Msg("backup service started")

	select {
	case <-time.After(time.Minute):
		s.runOnce()
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) runOnce() {
	if err := s.Perform(); err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
	}
	deleted, err := s.Cleanup()
	if err != nil {
		s.logger.Error().Err(err).Msg("backup cleanup failed")
	} else if deleted > 0 {
		s.logger.Info().Int("deleted", deleted).Msg("cleaned up old backups")
	}
}

// Perform copies the data file into the backup directory. A missing data
// file (nothing ever saved) is not an error.
func (s *Service) Perform() error {
	source, err := os.Open(s.dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Msg("no data file yet, skipping backup")
			return nil
		}
		return err
	}
	defer source.Close()

	timestamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(s.dir, fmt.Sprintf("agendamentos_%s.json", timestamp))

	destination, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return err
	}

	s.logger.Info().Str("path", dest).Msg("backup completed")
	return nil
}

// Cleanup removes backup copies older than the retention window and returns
// how many were deleted.
func (s *Service) Cleanup() (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.retention)
	deleted := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), "agendamentos_") {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, file.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}
