package links

import "context"

// Outcome is the result of a StoreOrReuse call.
type Outcome int

const (
	// OutcomeClaimed means the candidate token was inserted for the URL.
	OutcomeClaimed Outcome = iota
	// OutcomeReused means the URL already had a token, returned in Claim.Token.
	OutcomeReused
	// OutcomeCollision means the candidate is bound to a different URL.
	OutcomeCollision
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClaimed:
		return "claimed"
	case OutcomeReused:
		return "reused"
	case OutcomeCollision:
		return "collision"
	default:
		return "unknown"
	}
}

// Claim is returned by StoreOrReuse.
type Claim struct {
	Outcome Outcome
	Token   Token
	ID      int64
}

// Store persists links with a uniqueness constraint on both URL and token.
//
// StoreOrReuse must run as one atomic unit: a URL that already has a record
// yields OutcomeReused, a candidate bound to another URL yields
// OutcomeCollision, otherwise the pair is inserted and OutcomeClaimed is
// returned. Infrastructure faults wrap ErrStorageUnavailable.
type Store interface {
	StoreOrReuse(ctx context.Context, url CanonicalURL, candidate Token) (Claim, error)

	// LookupByToken returns ErrNotFound if no link has the token.
	LookupByToken(ctx context.Context, token Token) (*Link, error)

	// LookupByURL returns ErrNotFound if the URL was never shortened.
	LookupByURL(ctx context.Context, url CanonicalURL) (*Link, error)
}
