package verification_test

import (
	"context"
	"testing"
	"time"

	"github.com/barida/identity-server/verification"
	"github.com/stretchr/testify/require"
)

type scriptedChecker struct {
	pendingPolls int
	thenErr      error
	calls        int
}

func (c *scriptedChecker) CheckStatus(_ context.Context, _ string) (*verification.Status, error) {
	c.calls++
	if c.calls <= c.pendingPolls {
		return &verification.Status{Pending: true, Username: "jane"}, nil
	}
	if c.thenErr != nil {
		return nil, c.thenErr
	}
	return &verification.Status{Pending: false, Username: "jane"}, nil
}

func TestPollerStopsWhenNoLongerPending(t *testing.T) {
	checker := &scriptedChecker{pendingPolls: 2}
	poller := verification.NewPoller(checker, time.Millisecond, 10)

	err := poller.Wait(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Equal(t, 3, checker.calls)
}

func TestPollerStopsOnTokenGone(t *testing.T) {
	// Completed, expired and superseded all surface as not-found; the poll is
	// over either way.
	checker := &scriptedChecker{pendingPolls: 1, thenErr: verification.ErrTokenNotFound}
	poller := verification.NewPoller(checker, time.Millisecond, 10)

	err := poller.Wait(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Equal(t, 2, checker.calls)
}

func TestPollerBudgetExhausted(t *testing.T) {
	checker := &scriptedChecker{pendingPolls: 100}
	poller := verification.NewPoller(checker, time.Millisecond, 3)

	err := poller.Wait(context.Background(), "tok-1")
	require.ErrorIs(t, err, verification.ErrPollTimeout)
	require.Equal(t, 3, checker.calls)
}

func TestPollerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := &scriptedChecker{pendingPolls: 100}
	poller := verification.NewPoller(checker, time.Hour, 10)

	err := poller.Wait(ctx, "tok-1")
	require.ErrorIs(t, err, context.Canceled)
}
