package photos

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const reconcileConcurrency = 8

// Stats result of a clean sweep
type Stats struct {
	CheckedRows  int
	OrphanRows   int
	DeletedRows  int
	CheckedFiles int
	OrphanFiles  int
	DeletedFiles int
	SkippedFiles int // keys that are neither photos nor thumbnails
	Errors       []string
}

func (st *Stats) addError(format string, args ...interface{}) {
	st.Errors = append(st.Errors, fmt.Sprintf(format, args...))
}

// Reconcile removes rows whose file is missing and files that no row or
// profile references. dryRun only counts.
func (s *Service) Reconcile(ctx context.Context, dryRun bool) (*Stats, error) {
	stats := &Stats{}
	if err := s.ReconcileRows(ctx, dryRun, stats); err != nil {
		return stats, err
	}
	if err := s.ReconcileFiles(ctx, dryRun, stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// ReconcileRows deletes photo rows whose storage key does not exist.
func (s *Service) ReconcileRows(ctx context.Context, dryRun bool, stats *Stats) error {
	rows, err := s.photos.ListStoredFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to load photo rows: %w", err)
	}
	stats.CheckedRows += len(rows)

	var (
		mu      sync.Mutex
		orphans []uint
		owners  = make(map[uint]struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, row := range rows {
		g.Go(func() error {
			key := s.paths.StoragePath(row.UserID, row.Filename)
			exists, err := s.files.Exists(gctx, key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.addError("check %s: %v", key, err)
				return nil
			}
			if !exists {
				orphans = append(orphans, row.ID)
				owners[row.UserID] = struct{}{}
				logrus.WithFields(logrus.Fields{"photo_id": row.ID, "key": key, "dry_run": dryRun}).
					Info("[Clean] photo row without file")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats.OrphanRows += len(orphans)
	if dryRun || len(orphans) == 0 {
		return nil
	}

	deleted, err := s.photos.DeleteByIDs(ctx, orphans)
	if err != nil {
		return fmt.Errorf("failed to delete orphan rows: %w", err)
	}
	stats.DeletedRows += int(deleted)
	for owner := range owners {
		s.changed(ctx, owner)
	}
	return nil
}

// ReconcileFiles deletes stored files that neither a photo row nor a
// profile photo references. Storage is listed before rows are loaded, and
// each candidate is checked again right before deletion, so a concurrent
// upload is not mistaken for an orphan once its row exists.
func (s *Service) ReconcileFiles(ctx context.Context, dryRun bool, stats *Stats) error {
	keys, err := s.files.List(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list storage: %w", err)
	}
	stats.CheckedFiles += len(keys)

	known, err := s.referencedKeys(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if _, ok := known[key]; ok {
			continue
		}
		// thumbnails are written after their row, so an unknown one is stale
		if !s.paths.IsThumbnailPath(key) {
			owner, filename, ok := s.paths.ParseStoragePath(key)
			if !ok {
				stats.SkippedFiles++
				continue
			}

			photo, err := s.photos.GetByFilename(ctx, filename)
			if err != nil {
				stats.addError("recheck %s: %v", key, err)
				continue
			}
			if photo != nil && photo.UserID == owner {
				continue
			}
		}

		stats.OrphanFiles++
		logrus.WithFields(logrus.Fields{"key": key, "dry_run": dryRun}).Info("[Clean] file without photo row")
		if dryRun {
			continue
		}
		if err := s.files.DeleteWithContext(ctx, key); err != nil {
			stats.addError("delete %s: %v", key, err)
			continue
		}
		stats.DeletedFiles++
	}
	return nil
}

func (s *Service) referencedKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.photos.ListStoredFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load photo rows: %w", err)
	}
	profiles, err := s.accounts.ProfilePhotos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile photos: %w", err)
	}

	known := make(map[string]struct{}, 2*len(rows)+len(profiles))
	for _, row := range rows {
		known[s.paths.StoragePath(row.UserID, row.Filename)] = struct{}{}
		known[s.paths.ThumbnailPath(row.UserID, row.Filename)] = struct{}{}
	}
	for userID, filename := range profiles {
		known[s.paths.StoragePath(userID, filename)] = struct{}{}
	}
	return known, nil
}
