// Package persistence provides the boss-list serialization facade
// described in §6: a capability interface plus a file-based
// implementation, in the style of internal/core/imageproxy's DiskCache
// (a small interface plus one concrete filesystem-backed struct).
package persistence

import (
	"context"

	"github.com/walfie-raid/petronel/internal/model"
)

// Store is the capability interface the handler's periodic flush task
// depends on (§9 design notes: the handler never names a concrete
// persistence backend). Implementations are opaque byte stores to the
// rest of the system — file or network key/value, either is
// acceptable.
type Store interface {
	// GetBosses loads the last saved boss list, or an empty slice if
	// nothing has been saved yet.
	GetBosses(ctx context.Context) ([]model.Boss, error)

	// SaveBosses overwrites the saved boss list.
	SaveBosses(ctx context.Context, bosses []model.Boss) error
}
