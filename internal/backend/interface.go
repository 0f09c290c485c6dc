// Package backend opens the stores and the remote drive selected by the
// application config.
package backend

import (
	"context"

	"gastos/internal/drive"
	"gastos/internal/store"
)

// CleanupFunc releases the resources held by a Backend.
type CleanupFunc func() error

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend groups the adapters a process needs.
type Backend struct {
	Config    store.ConfigRepository
	Variables store.VariableExpenseStore
	History   store.History
	Remote    drive.Remote

	// Ready is nil when nothing needs probing.
	Ready   Pinger
	Cleanup CleanupFunc
}

// Close runs Cleanup once.
func (b *Backend) Close() error {
	if b == nil || b.Cleanup == nil {
		return nil
	}
	fn := b.Cleanup
	b.Cleanup = nil
	return fn()
}

// Ping probes Ready when set.
func (b *Backend) Ping(ctx context.Context) error {
	if b.Ready == nil {
		return nil
	}
	return b.Ready.Ping(ctx)
}
