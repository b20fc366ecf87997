package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/project"
)

// CorruptSuffix is appended to a legacy snapshot that cannot be parsed.
const CorruptSuffix = ".corrupt"

// KeyLegacyImportedAt records when the legacy snapshot file was last imported.
const KeyLegacyImportedAt = "legacy_imported_at"

// Service handles launch and rating operations and derives snapshots.
type Service struct {
	repo      Repository
	online    OnlineCounter
	kv        KVStore
	activity  ActivityLogger
	publisher Publisher
	logger    *slog.Logger
}

// NewService creates a new stats service.
func NewService(
	repo Repository,
	online OnlineCounter,
	kv KVStore,
	activityLog ActivityLogger,
	publisher Publisher,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:      repo,
		online:    online,
		kv:        kv,
		activity:  activityLog,
		publisher: publisher,
		logger:    logger,
	}
}

// RecordLaunch increments the launch counter for a project and returns the new count.
func (s *Service) RecordLaunch(ctx context.Context, projectID string) (uint64, error) {
	if err := project.ValidateID(projectID); err != nil {
		return 0, err
	}

	count, err := s.repo.IncrementLaunch(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("recording launch: %w", err)
	}

	s.publish(Change{Kind: KindLaunch, ProjectID: projectID})
	return count, nil
}

// RecordRating appends a rating sample and returns the project's new sample count.
func (s *Service) RecordRating(ctx context.Context, projectID string, value float64) (uint64, error) {
	if err := project.ValidateID(projectID); err != nil {
		return 0, err
	}
	if !ValidRating(value) {
		return 0, ErrInvalidRating
	}

	count, err := s.repo.AppendRating(ctx, projectID, value)
	if err != nil {
		return 0, fmt.Errorf("recording rating: %w", err)
	}

	s.publish(Change{Kind: KindRating, ProjectID: projectID})
	return count, nil
}

// Snapshot recomputes the full stats view from durable state.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	launches, err := s.repo.LaunchCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading launches: %w", err)
	}
	ratings, err := s.repo.RatingSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ratings: %w", err)
	}

	var online uint64
	if s.online != nil {
		online, err = s.online.OnlineCount(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting online sessions: %w", err)
		}
	}

	if launches == nil {
		launches = map[string]uint64{}
	}
	if ratings == nil {
		ratings = map[string]RatingSummary{}
	}

	return &Snapshot{
		Version:  SnapshotVersion,
		Online:   online,
		Launches: launches,
		Ratings:  ratings,
	}, nil
}

// ImportLegacy imports a legacy flat snapshot file, if present, and deletes it.
// A file that is not valid JSON is renamed with CorruptSuffix and skipped.
//
// Counters are written with replace semantics so a re-run after a crash is
// harmless for them. Ratings are appended, so a crash between import and
// delete duplicates those samples on the next start.
func (s *Service) ImportLegacy(ctx context.Context, path string) (ImportResult, error) {
	result := ImportResult{Path: path}
	if path == "" {
		return result, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("reading legacy snapshot: %w", err)
	}

	var legacy LegacySnapshot
	if err := json.Unmarshal(data, &legacy); err != nil {
		// Moved aside so the next start does not trip over it again.
		aside := path + CorruptSuffix
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return result, fmt.Errorf("parsing legacy snapshot: %w", errors.Join(err, renameErr))
		}
		s.logger.Error("legacy snapshot is corrupt, moved aside", "path", path, "moved_to", aside, "error", err)
		result.MovedTo = aside
		return result, nil
	}

	for projectID, count := range legacy.Launches {
		if err := project.ValidateID(projectID); err != nil {
			s.logger.Warn("skipping legacy launch counter", "project", projectID, "error", err)
			result.Skipped++
			continue
		}
		if err := s.repo.SetLaunchCount(ctx, projectID, count); err != nil {
			return result, fmt.Errorf("importing launches for %s: %w", projectID, err)
		}
		result.Counters++
	}

	for projectID, values := range legacy.Ratings {
		if err := project.ValidateID(projectID); err != nil {
			s.logger.Warn("skipping legacy ratings", "project", projectID, "error", err)
			result.Skipped += len(values)
			continue
		}
		for _, value := range values {
			if !ValidRating(value) {
				s.logger.Warn("skipping legacy rating", "project", projectID, "value", value)
				result.Skipped++
				continue
			}
			if _, err := s.repo.AppendRating(ctx, projectID, value); err != nil {
				return result, fmt.Errorf("importing rating for %s: %w", projectID, err)
			}
			result.Ratings++
		}
	}

	now := time.Now().UTC()
	if s.kv != nil {
		if err := s.kv.SetValue(ctx, KeyLegacyImportedAt, now.Format(time.RFC3339)); err != nil {
			return result, fmt.Errorf("marking legacy import: %w", err)
		}
	}
	if s.activity != nil {
		entry := &activity.ActivityEntry{
			ActivityType: activity.TypeLegacyImport,
			Summary:      fmt.Sprintf("imported %d counters and %d ratings", result.Counters, result.Ratings),
			Details:      path,
			CreatedAt:    now,
		}
		if err := s.activity.LogActivity(ctx, entry); err != nil {
			s.logger.Warn("failed to log legacy import", "error", err)
		}
	}

	if err := os.Remove(path); err != nil {
		return result, fmt.Errorf("removing legacy snapshot: %w", err)
	}

	result.Imported = true
	s.logger.Info("imported legacy stats", "path", path, "counters", result.Counters, "ratings", result.Ratings, "skipped", result.Skipped)
	s.publish(Change{Kind: KindLaunch})
	return result, nil
}

// ValidRating reports whether value is an acceptable rating.
func ValidRating(value float64) bool {
	if math.IsNaN(value) {
		return false
	}
	return value >= 0 && value <= 5
}

func (s *Service) publish(change Change) {
	if s.publisher != nil {
		s.publisher.Publish(change)
	}
}
