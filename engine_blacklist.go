package guardian

import "context"

// BlacklistToken revokes a single token for its remaining validity.
// Malformed tokens are rejected with [ErrTokenMalformed]; already-expired
// tokens are a no-op.
func (e *Engine) BlacklistToken(ctx context.Context, token, reason string) error {
	if err := e.blacklist.Blacklist(ctx, token, reason); err != nil {
		return err
	}
	e.metrics.Inc(MetricBlacklistWrite)
	e.monitor.LogEvent(EventInput{
		Type:     EventTokenRevoked,
		Severity: SeverityLow,
		Metadata: map[string]string{"reason": reason},
	})
	return nil
}

// IsTokenBlacklisted reports whether a token has been revoked. Callers
// should treat an error as a failed check and decide their own
// fail-open or fail-closed posture.
func (e *Engine) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	hit, err := e.blacklist.IsBlacklisted(ctx, token)
	if err != nil {
		return false, err
	}
	if hit {
		e.metrics.Inc(MetricBlacklistHit)
	}
	return hit, nil
}

// BlacklistAllUserTokens places a logout-everywhere marker for the user.
// Tokens issued before the marker are treated as revoked until it expires.
func (e *Engine) BlacklistAllUserTokens(ctx context.Context, userID, reason string) error {
	if err := e.blacklist.BlacklistAllUser(ctx, userID, reason); err != nil {
		return err
	}
	e.metrics.Inc(MetricUserLogoutAll)
	e.monitor.LogEvent(EventInput{
		Type:     EventAllTokensRevoked,
		Severity: SeverityMedium,
		UserID:   userID,
		Metadata: map[string]string{"reason": reason},
	})
	return nil
}

// IsUserLoggedOutFromAll reports whether the user's logout-everywhere
// marker is active.
func (e *Engine) IsUserLoggedOutFromAll(ctx context.Context, userID string) (bool, error) {
	return e.blacklist.IsUserLoggedOut(ctx, userID)
}
