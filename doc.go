// Package guardian is the abuse-resistance core of an authentication layer:
// sliding-window rate limiting (local, plan-aware, and Redis-backed
// distributed), a security-event monitor with pluggable attack-pattern
// detectors and an alert lifecycle, a token revocation blacklist, and an
// RFC 6238 TOTP engine.
//
// The package is a library boundary, not a network protocol. Callers (the
// HTTP/auth layer) pass an identifier and receive a decision or an event id;
// guardian never owns user, plan, or route data.
//
// Engine methods are safe for concurrent use after construction through
// [Builder.Build]. CheckLimit and LogEvent are hot paths: they take a lock
// only for the identifier's in-memory state and never perform external I/O.
// The one exception is [Engine.CheckDistributedLimit], whose Redis round-trip
// carries its own short timeout and falls back to a local approximation when
// the backend is unreachable.
//
// Background work (window sweeps, event-log retention, blacklist fallback
// reaping, alert dispatch) runs on tickers owned by the Engine and stops on
// [Engine.Close].
package guardian
