package session

import (
	"context"
	"errors"

	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// ScriptLoader reads a script from a path, as storage.Store.LoadScript does.
type ScriptLoader func(ctx context.Context, path string) (dialogue.Script, error)

// WatchScript reloads the script each time a path arrives on changes, until
// ctx is done or changes is closed. A script that fails to load is logged and
// the current one kept.
func (r *Runner) WatchScript(ctx context.Context, changes <-chan string, load ScriptLoader) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-changes:
			if !ok {
				return
			}
			script, err := load(ctx, path)
			if err != nil {
				logger.WithError(r.logger, err).Warn("Script reload rejected, keeping current script", "path", path)
				continue
			}
			err = r.ReloadScript(ctx, script)
			if err != nil && !errors.Is(err, ErrConversationActive) {
				logger.WithError(r.logger, err).Warn("Script reload failed", "path", path)
			}
		}
	}
}
