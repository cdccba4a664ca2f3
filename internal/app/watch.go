package app

import (
	"context"

	"github.com/vk/flowcalc/internal/watch"
)

// Watch follows the server at the configured watch URL, printing to the
// app's output until ctx is cancelled.
func (a *App) Watch(ctx context.Context, format string) error {
	return watch.Run(a.Context(ctx), a.outW, watch.Options{
		URL:                a.cfg.Watch.URL,
		Format:             format,
		InsecureSkipVerify: a.cfg.Watch.InsecureSkipVerify,
	})
}
