package letter

import (
	"context"
	"time"

	"github.com/futureme/futureme/internal/domain"
)

// Repository defines the data access contract for letters.
// Implementations must be safe for concurrent use: the submission flow and
// the delivery poller share one instance.
type Repository interface {
	// Create inserts a new unsent letter and returns its assigned id.
	Create(ctx context.Context, l *domain.Letter) (string, error)

	// FindDue returns up to limit unsent letters whose delivery instant is
	// at or before asOf, oldest first. The predicate is deliberately open
	// ended ("at or before", not a window) so missed ticks self-heal.
	FindDue(ctx context.Context, asOf time.Time, limit int) ([]domain.Letter, error)

	// MarkSent flips the sent flag for one letter. It is idempotent:
	// marking an already-sent letter succeeds as a no-op.
	MarkSent(ctx context.Context, id string) error

	// Ping verifies the store is reachable (health probe).
	Ping(ctx context.Context) error
}
