package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// The version suffix allows a future algorithm migration.
const (
	DomainEvent = "provtrack/event/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes the content digest of ev.
//
// Ids are reset before hashing, so an event hashes the same before and
// after it has been synced. Backends compare digests to tell an idempotent
// resubmission from a key collision.
func Digest(ev Event) (string, error) {
	c := ev.Clone()
	for _, s := range Slots(&c) {
		*s.ID = Unassigned
	}
	canonical, err := MarshalCanonical(c)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when the event is known to be finite.
func MustDigest(ev Event) string {
	d, err := Digest(ev)
	if err != nil {
		panic(err)
	}
	return d
}
