package links

import (
	"errors"
	"time"
)

var (
	// ErrInvalidURL is returned when the input cannot be canonicalized.
	ErrInvalidURL = errors.New("invalid url")
	// ErrTokenSpaceExhausted is returned when every prefix length collided.
	ErrTokenSpaceExhausted = errors.New("token space exhausted")
	// ErrStorageUnavailable wraps infrastructure faults from a Store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotFound is returned when no link matches a lookup.
	ErrNotFound = errors.New("link not found")
)

// CanonicalURL is a normalized absolute http(s) URL.
type CanonicalURL string

// Token is a short identifier bound to exactly one URL.
type Token string

// Link is the persisted URL record.
type Link struct {
	ID    int64
	URL   CanonicalURL
	Token Token

	// Created is set when the call that returned this link inserted it.
	Created bool
}

// TopicLinkClaimed is the message topic for newly claimed links.
const TopicLinkClaimed = "links.claimed"

// ClaimedEvent is published after a shorten request inserts a new link.
type ClaimedEvent struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ClaimedAt time.Time `json:"claimedAt"`
}
