package showcase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/showcase/media"
)

// DefaultSweepGrace is how old an unreferenced blob must be before Sweep
// removes it, so uploads whose row is not yet written are left alone.
const DefaultSweepGrace = time.Hour

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	Scanned  int      `json:"scanned"`
	Orphans  []string `json:"orphans"`
	Removed  int      `json:"removed"`
	Dangling []string `json:"dangling"`
	DryRun   bool     `json:"dry_run"`
}

// Sweep deletes blobs under the gallery and blog-assets prefixes that no row
// references and that are older than grace. Row references whose blob is
// missing are reported as dangling; rows are never modified.
func Sweep(ctx context.Context, store ContentStore, blobs media.Store, grace time.Duration, dryRun bool, log *zap.Logger) (SweepReport, error) {
	report := SweepReport{Orphans: []string{}, Dangling: []string{}, DryRun: dryRun}

	refs, err := store.MediaReferences(ctx)
	if err != nil {
		return report, err
	}
	referenced := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		referenced[r] = struct{}{}
	}

	present := make(map[string]struct{})
	cutoff := time.Now().Add(-grace)
	for _, prefix := range []string{media.GalleryPrefix, media.BlogAssetsPrefix} {
		objects, err := blobs.List(ctx, prefix)
		if err != nil {
			return report, fmt.Errorf("sweep: list %s: %w", prefix, err)
		}
		for _, obj := range objects {
			report.Scanned++
			url := obj.Key.URL()
			present[url] = struct{}{}
			if _, ok := referenced[url]; ok {
				continue
			}
			if obj.ModTime.After(cutoff) {
				continue
			}
			report.Orphans = append(report.Orphans, url)
			if dryRun {
				continue
			}
			if err := blobs.Delete(ctx, obj.Key); err != nil && !errors.Is(err, media.ErrNotExist) {
				log.Warn("sweep: delete orphan", zap.String("key", string(obj.Key)), zap.Error(err))
				continue
			}
			report.Removed++
		}
	}

	for _, r := range refs {
		if _, ok := present[r]; ok {
			continue
		}
		// References outside the managed prefixes are not ours to judge.
		if k, ok := media.KeyFromURL(r); ok && (k.Prefix() == media.GalleryPrefix || k.Prefix() == media.BlogAssetsPrefix) {
			report.Dangling = append(report.Dangling, r)
		}
	}

	log.Info("sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("removed", report.Removed),
		zap.Int("dangling", len(report.Dangling)),
		zap.Bool("dry_run", dryRun),
	)
	return report, nil
}

// SeedGallery inserts a row for every image blob already in the gallery
// prefix when the images table is empty. It returns the number inserted.
func SeedGallery(ctx context.Context, store ContentStore, blobs media.Store) (int, error) {
	n, err := store.CountImages(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	objects, err := blobs.List(ctx, media.GalleryPrefix)
	if err != nil {
		return 0, fmt.Errorf("seed gallery: %w", err)
	}
	seeded := 0
	for _, obj := range objects {
		if _, ok := imageTypes[strings.ToLower(path.Ext(obj.Key.Name()))]; !ok {
			continue
		}
		img := &Image{Path: obj.Key.URL()}
		if err := store.CreateImage(ctx, img); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
