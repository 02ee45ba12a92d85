package wad

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReadMaps decodes every map in the directory concurrently. The result is in the order
// returned by Maps. The first decode failure cancels the remaining work and is returned.
func (w *Wad) ReadMaps(ctx context.Context) ([]*Map, error) {
	spans, err := w.Maps()
	if err != nil {
		return nil, err
	}
	log().Debug("Reading maps", zap.Int("count", len(spans)))

	maps := make([]*Map, len(spans))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range spans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := w.readSpan(s)
			if err != nil {
				return err
			}
			maps[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return maps, nil
}
