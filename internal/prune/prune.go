// Package prune deletes image versions older than the configured cut-off.
package prune

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/ghcr-retention/internal/config"
	"github.com/bnema/ghcr-retention/internal/registry"
	"github.com/bnema/ghcr-retention/pkg/logger"
	"github.com/bnema/ghcr-retention/pkg/timeparse"
)

// Pruner runs the retention policy against one namespace.
type Pruner struct {
	ns  registry.Namespace
	cfg *config.Config
	log *logger.Logger
}

// New builds a Pruner. cfg must come from config.Validate.
func New(ns registry.Namespace, cfg *config.Config) *Pruner {
	return &Pruner{
		ns:  ns,
		cfg: cfg,
		log: logger.GetLogger(),
	}
}

// Run processes every image concurrently and waits for all of them. One
// image's failure does not stop the others; the first error is returned
// once every image has finished.
func (p *Pruner) Run(ctx context.Context, images []registry.ImageName) error {
	var g errgroup.Group
	for _, image := range images {
		image := image
		g.Go(func() error {
			return p.Image(ctx, image)
		})
	}
	return g.Wait()
}

// Image lists the versions of one image and deletes every version whose
// selected timestamp is strictly before the cut-off. Deletions run
// concurrently and are all awaited before the first failure, if any, is
// returned.
func (p *Pruner) Image(ctx context.Context, image registry.ImageName) error {
	versions, err := p.ns.ListVersions(ctx, image)
	if err != nil {
		return fmt.Errorf("failed to list versions of %s: %w", image.Value, err)
	}

	stale := p.stale(image, versions)
	if len(stale) == 0 {
		p.log.Info("No more versions to delete", "image", image.Value)
	}

	var g errgroup.Group
	for _, version := range stale {
		version := version
		g.Go(func() error {
			if err := p.ns.DeleteVersion(ctx, image, version.ID); err != nil {
				return err
			}
			p.log.Info("Deleted old image", "image", image.Value, "version", version.ID)
			return nil
		})
	}
	return g.Wait()
}

// stale filters versions down to the ones strictly older than the cut-off.
// A version whose timestamp cannot be parsed is skipped with a warning
// rather than failing the image.
func (p *Pruner) stale(image registry.ImageName, versions []registry.Version) []registry.Version {
	var out []registry.Version
	for _, version := range versions {
		ts, _, err := timeparse.Resolve(version.Timestamp(p.cfg.TimestampType))
		if err != nil {
			p.log.Warn("Skipping image version, unable to parse timestamp",
				"image", image.Value, "version", version.ID)
			continue
		}
		if ts.Before(p.cfg.Cutoff) {
			out = append(out, version)
		}
	}
	return out
}
