package runner

import (
	"context"
	"fmt"

	"github.com/cybertec-postgresql/pgup/internal/discovery"
	"github.com/cybertec-postgresql/pgup/internal/parser"
	"golang.org/x/sync/errgroup"
)

// PrepareScripts reads and splits scripts concurrently, at most workers at a
// time. The result has the same order as files. The first read error cancels
// the remaining work.
func PrepareScripts(ctx context.Context, files []discovery.DiscoveredFile, scs bool, workers int) ([]*parser.ParsedScript, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}

	scripts := make([]*parser.ParsedScript, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parsed, err := parser.Parse(&files[i], scs)
			if err != nil {
				return fmt.Errorf("failed to prepare %s: %w", files[i].Name, err)
			}
			scripts[i] = parsed
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scripts, nil
}
