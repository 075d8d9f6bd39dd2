package install

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Manifest lists mods to install in one batch.
type Manifest struct {
	Mods []ModDetails `yaml:"mods"`
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// InstallBatch installs every mod in mods, running up to concurrency
// installs at a time. Each mod is validated on its own; one failure does not
// stop the others. The returned results are in input order and hold nil for
// failed entries; the error aggregates every failure.
func (in *Installer) InstallBatch(ctx context.Context, appID uint32, mods []ModDetails, basePath string, concurrency int) ([]*Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*Result, len(mods))
	seen := make(map[string]int, len(mods))
	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, details := range mods {
		// Two entries with the same identifier would extract into the same
		// folder concurrently.
		if first, dup := seen[details.Identifier]; dup {
			mu.Lock()
			errs = multierror.Append(errs, fmt.Errorf("mod %q: duplicate of entry %d", details.Identifier, first+1))
			mu.Unlock()
			continue
		}
		seen[details.Identifier] = i

		i, details := i, details
		g.Go(func() error {
			res, err := in.Install(gctx, appID, details, basePath)
			if in.OnBatchItem != nil {
				in.OnBatchItem(details.Identifier, err)
			}
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("mod %q: %w", details.Identifier, err))
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}

	_ = g.Wait()
	return results, errs.ErrorOrNil()
}
