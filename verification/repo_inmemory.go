package verification

import (
	"context"
	"sync"
	"time"
)

var _ TokenStore = (*InMemoryTokenStore)(nil)

// InMemoryTokenStore is the single-process TokenStore used in development and
// tests. Consumed token values are remembered until their original expiry so
// a late second completion is reported as already-used, not unknown.
type InMemoryTokenStore struct {
	tokens   map[string]*Token    // value -> live token
	byUser   map[string]string    // user id -> live token value
	consumed map[string]time.Time // value -> original expiry
	lock     sync.Mutex
	nowFunc  func() time.Time
}

type InMemoryOption func(*InMemoryTokenStore)

func WithInMemoryNowFunc(now func() time.Time) InMemoryOption {
	return func(s *InMemoryTokenStore) {
		s.nowFunc = now
	}
}

func NewInMemoryTokenStore(options ...InMemoryOption) *InMemoryTokenStore {
	s := &InMemoryTokenStore{
		tokens:   make(map[string]*Token),
		byUser:   make(map[string]string),
		consumed: make(map[string]time.Time),
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *InMemoryTokenStore) Put(_ context.Context, token Token) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if prior, ok := s.byUser[token.UserID]; ok {
		delete(s.tokens, prior)
	}
	copied := token
	s.tokens[token.Value] = &copied
	s.byUser[token.UserID] = token.Value
	s.expireConsumedLocked()
	return nil
}

func (s *InMemoryTokenStore) Get(_ context.Context, value string) (*Token, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.getLocked(value)
}

func (s *InMemoryTokenStore) Consume(_ context.Context, value string) (*Token, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	token, err := s.getLocked(value)
	if err != nil {
		return nil, err
	}
	delete(s.tokens, value)
	delete(s.byUser, token.UserID)
	s.consumed[value] = token.ExpiresAt
	return token, nil
}

func (s *InMemoryTokenStore) DeleteForUser(_ context.Context, userID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if value, ok := s.byUser[userID]; ok {
		delete(s.tokens, value)
		delete(s.byUser, userID)
	}
	return nil
}

func (s *InMemoryTokenStore) getLocked(value string) (*Token, error) {
	now := s.nowFunc()
	if expiry, ok := s.consumed[value]; ok {
		if now.After(expiry) {
			delete(s.consumed, value)
			return nil, ErrTokenNotFound
		}
		return nil, ErrTokenAlreadyUsed
	}
	token, ok := s.tokens[value]
	if !ok {
		return nil, ErrTokenNotFound
	}
	if token.Expired(now) {
		delete(s.tokens, value)
		delete(s.byUser, token.UserID)
		return nil, ErrTokenExpired
	}
	copied := *token
	return &copied, nil
}

// expireConsumedLocked drops consumed markers whose horizon passed; called
// opportunistically on writes so the map stays bounded.
func (s *InMemoryTokenStore) expireConsumedLocked() {
	now := s.nowFunc()
	for value, expiry := range s.consumed {
		if now.After(expiry) {
			delete(s.consumed, value)
		}
	}
}
