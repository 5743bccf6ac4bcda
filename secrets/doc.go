// Package secrets provides the symmetric-crypto and PIN helpers used
// around the guardian engine: AES-256-GCM encryption for payloads at
// rest and argon2id hashing for short numeric secrets.
package secrets
