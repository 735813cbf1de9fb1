package verification

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// DefaultPollInterval is how often a waiting client re-checks its token.
const DefaultPollInterval = 3 * time.Second

// ErrPollTimeout is returned when the attempt budget runs out while the
// token is still pending.
var ErrPollTimeout = errors.New("verification still pending after poll budget")

// StatusChecker is the slice of the service a poller needs; the identity
// origin client satisfies it with an HTTP call.
type StatusChecker interface {
	CheckStatus(ctx context.Context, tokenValue string) (*Status, error)
}

// Poller drives the client side of the handoff: re-check the token on a
// fixed interval until it is no longer pending, the attempt budget is spent
// or the context ends. The budget defaults to the token TTL divided by the
// interval so polling never outlives the token itself.
type Poller struct {
	checker     StatusChecker
	interval    time.Duration
	maxAttempts int
}

func NewPoller(checker StatusChecker, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = int(DefaultTokenTTL / DefaultPollInterval)
	}
	return &Poller{checker: checker, interval: interval, maxAttempts: maxAttempts}
}

// Wait blocks until the token stops being pending. A token that became
// invalid (completed elsewhere, expired or superseded) ends the wait too:
// the caller re-authenticates to observe the final verification state either
// way.
func (p *Poller) Wait(ctx context.Context, tokenValue string) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		status, err := p.checker.CheckStatus(ctx, tokenValue)
		if err != nil {
			// Not-found covers completed, expired and superseded alike;
			// the poll is over either way.
			return nil
		}
		if !status.Pending {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return ErrPollTimeout
}
