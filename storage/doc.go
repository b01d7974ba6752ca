// Package storage provides the persistence interfaces for the grant engine.
//
// The engine treats persistence as an injected capability: it finds and
// writes credentials through these ports and enforces expiration by
// comparing ExpiresAt to the current time at use time, never by active
// cleanup. Implementations decide retention and consistency; the in-memory
// reference implementation lives in storage/memory.
package storage
