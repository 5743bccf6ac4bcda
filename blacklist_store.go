package guardian

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// blacklistEntry is the stored revocation record. The key's TTL mirrors the
// token's own remaining validity, so storage never outlives the threat.
type blacklistEntry struct {
	Reason        string `json:"reason"`
	BlacklistedAt int64  `json:"blacklisted_at"`
	ExpiresAt     int64  `json:"expires_at"`
}

// blacklistStore revokes tokens in Redis, with an in-memory fallback for
// environments without a shared store. Keys are SHA-256 hashes of the token
// so raw tokens never land in the backend.
type blacklistStore struct {
	redis  redis.UniversalClient
	cfg    BlacklistConfig
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	fallback      map[string]blacklistEntry
	fallbackUsers map[string]time.Time

	stopSweep chan struct{}
	sweepWG   sync.WaitGroup
	stopOnce  sync.Once
}

func newBlacklistStore(redisClient redis.UniversalClient, cfg BlacklistConfig, logger *slog.Logger, now func() time.Time) *blacklistStore {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "gbl"
	}
	return &blacklistStore{
		redis:         redisClient,
		cfg:           cfg,
		logger:        logger,
		now:           now,
		fallback:      make(map[string]blacklistEntry),
		fallbackUsers: make(map[string]time.Time),
	}
}

func (s *blacklistStore) tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.cfg.KeyPrefix + ":t:" + hex.EncodeToString(sum[:])
}

func (s *blacklistStore) userKey(userID string) string {
	return s.cfg.KeyPrefix + ":u:" + userID
}

// tokenRemaining extracts the exp claim without signature verification and
// returns the token's remaining validity. Signature checks belong to the
// authentication layer; revocation only needs the expiry horizon.
func (s *blacklistStore) tokenRemaining(token string) (time.Duration, error) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, fmt.Errorf("%w: missing exp claim", ErrTokenMalformed)
	}
	return exp.Time.Sub(s.now()), nil
}

// Blacklist revokes a single token for the remainder of its validity.
// Already-expired tokens are a no-op: there is nothing left to protect.
func (s *blacklistStore) Blacklist(ctx context.Context, token, reason string) error {
	remaining, err := s.tokenRemaining(token)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return nil
	}

	now := s.now()
	entry := blacklistEntry{
		Reason:        reason,
		BlacklistedAt: now.Unix(),
		ExpiresAt:     now.Add(remaining).Unix(),
	}

	if s.redis == nil {
		s.mu.Lock()
		s.fallback[s.tokenKey(token)] = entry
		s.mu.Unlock()
		return nil
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.tokenKey(token), encoded, remaining).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBlacklistUnavailable, err)
	}
	return nil
}

// IsBlacklisted checks key presence only; the stored entry value is not
// consulted.
func (s *blacklistStore) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	key := s.tokenKey(token)

	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		entry, ok := s.fallback[key]
		if !ok {
			return false, nil
		}
		if s.now().Unix() > entry.ExpiresAt {
			delete(s.fallback, key)
			return false, nil
		}
		return true, nil
	}

	n, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBlacklistUnavailable, err)
	}
	return n > 0, nil
}

// BlacklistAllUser writes the coarse logout-everywhere marker. This is a
// signal with a fixed TTL, not a reconciliation of every issued token.
func (s *blacklistStore) BlacklistAllUser(ctx context.Context, userID, reason string) error {
	if s.redis == nil {
		s.mu.Lock()
		s.fallbackUsers[userID] = s.now().Add(s.cfg.UserLogoutTTL)
		s.mu.Unlock()
		return nil
	}

	entry := blacklistEntry{
		Reason:        reason,
		BlacklistedAt: s.now().Unix(),
		ExpiresAt:     s.now().Add(s.cfg.UserLogoutTTL).Unix(),
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.userKey(userID), encoded, s.cfg.UserLogoutTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBlacklistUnavailable, err)
	}
	return nil
}

// IsUserLoggedOut reports whether the logout-everywhere marker is present.
func (s *blacklistStore) IsUserLoggedOut(ctx context.Context, userID string) (bool, error) {
	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		expires, ok := s.fallbackUsers[userID]
		if !ok {
			return false, nil
		}
		if s.now().After(expires) {
			delete(s.fallbackUsers, userID)
			return false, nil
		}
		return true, nil
	}

	n, err := s.redis.Exists(ctx, s.userKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBlacklistUnavailable, err)
	}
	return n > 0, nil
}

// StartFallbackSweep reaps expired fallback entries. Redis entries expire
// on their own TTL and need no sweep.
func (s *blacklistStore) StartFallbackSweep() {
	if s.redis != nil {
		return
	}
	interval := s.cfg.FallbackSweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	s.stopSweep = make(chan struct{})

	s.sweepWG.Add(1)
	go func() {
		defer s.sweepWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweepFallback()
			case <-s.stopSweep:
				return
			}
		}
	}()
}

func (s *blacklistStore) sweepFallback() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.fallback {
		if now.Unix() > entry.ExpiresAt {
			delete(s.fallback, key)
		}
	}
	for userID, expires := range s.fallbackUsers {
		if now.After(expires) {
			delete(s.fallbackUsers, userID)
		}
	}
}

// Stop terminates the fallback sweep. Safe to call more than once.
func (s *blacklistStore) Stop() {
	s.stopOnce.Do(func() {
		if s.stopSweep != nil {
			close(s.stopSweep)
		}
	})
	s.sweepWG.Wait()
}
