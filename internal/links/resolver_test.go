package links_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serroba/hashlink/internal/links"
	"github.com/serroba/hashlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errMock = errors.New("mock error")

// stubStore lets a test script StoreOrReuse; lookups always miss.
type stubStore struct {
	storeOrReuse func(ctx context.Context, url links.CanonicalURL, candidate links.Token) (links.Claim, error)
	lookupErr    error
	calls        atomic.Int32
}

func (s *stubStore) StoreOrReuse(ctx context.Context, url links.CanonicalURL, candidate links.Token) (links.Claim, error) {
	s.calls.Add(1)

	return s.storeOrReuse(ctx, url, candidate)
}

func (s *stubStore) LookupByToken(_ context.Context, _ links.Token) (*links.Link, error) {
	s.calls.Add(1)

	if s.lookupErr != nil {
		return nil, s.lookupErr
	}

	return nil, links.ErrNotFound
}

func (s *stubStore) LookupByURL(_ context.Context, _ links.CanonicalURL) (*links.Link, error) {
	return nil, links.ErrNotFound
}

const target links.CanonicalURL = "http://google.com"

func seed(t *testing.T, s links.Store, url links.CanonicalURL, token links.Token) {
	t.Helper()

	claim, err := s.StoreOrReuse(context.Background(), url, token)
	require.NoError(t, err)
	require.Equal(t, links.OutcomeClaimed, claim.Outcome)
}

func TestResolver_Claim(t *testing.T) {
	ctx := context.Background()
	full := links.Derive(target)

	t.Run("claims the minimum prefix when free", func(t *testing.T) {
		s := store.NewMemoryStore()
		r := links.NewResolver(s, zap.NewNop())

		link, err := r.Claim(ctx, full, target)

		require.NoError(t, err)
		assert.Equal(t, links.Token("Elk6fWZ9"), link.Token)
		assert.True(t, link.Created)
		assert.Equal(t, target, link.URL)
	})

	t.Run("grows the prefix past collisions", func(t *testing.T) {
		s := store.NewMemoryStore()
		seed(t, s, "http://other.example", full[:8])
		seed(t, s, "http://another.example", full[:9])
		r := links.NewResolver(s, zap.NewNop())

		link, err := r.Claim(ctx, full, target)

		require.NoError(t, err)
		assert.Equal(t, full[:10], link.Token)
		assert.True(t, link.Created)

		owner, err := s.LookupByToken(ctx, full[:8])
		require.NoError(t, err)
		assert.Equal(t, links.CanonicalURL("http://other.example"), owner.URL)
	})

	t.Run("returns the stored token of an already shortened url", func(t *testing.T) {
		s := store.NewMemoryStore()
		seed(t, s, target, full[:11])
		r := links.NewResolver(s, zap.NewNop())

		link, err := r.Claim(ctx, full, target)

		require.NoError(t, err)
		assert.Equal(t, full[:11], link.Token)
		assert.False(t, link.Created)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("fails when every allowed length collides", func(t *testing.T) {
		s := store.NewMemoryStore()
		seed(t, s, "http://other.example", full[:8])
		seed(t, s, "http://another.example", full[:9])
		r := links.NewResolver(s, zap.NewNop(), links.WithTokenLength(8, 9))

		link, err := r.Claim(ctx, full, target)

		assert.Nil(t, link)
		assert.ErrorIs(t, err, links.ErrTokenSpaceExhausted)
	})

	t.Run("never tries past the full token", func(t *testing.T) {
		stub := &stubStore{
			storeOrReuse: func(context.Context, links.CanonicalURL, links.Token) (links.Claim, error) {
				return links.Claim{Outcome: links.OutcomeCollision}, nil
			},
		}
		r := links.NewResolver(stub, zap.NewNop(), links.WithTokenLength(8, 100))

		_, err := r.Claim(ctx, "abcdefghij", target)

		assert.ErrorIs(t, err, links.ErrTokenSpaceExhausted)
		assert.Equal(t, int32(3), stub.calls.Load())
	})

	t.Run("does not retry storage failures", func(t *testing.T) {
		stub := &stubStore{
			storeOrReuse: func(context.Context, links.CanonicalURL, links.Token) (links.Claim, error) {
				return links.Claim{}, errMock
			},
		}
		r := links.NewResolver(stub, zap.NewNop())

		_, err := r.Claim(ctx, full, target)

		require.ErrorIs(t, err, links.ErrStorageUnavailable)
		assert.ErrorIs(t, err, errMock)
		assert.Equal(t, int32(1), stub.calls.Load())
	})

	t.Run("bounds each store call with a timeout", func(t *testing.T) {
		stub := &stubStore{
			storeOrReuse: func(ctx context.Context, _ links.CanonicalURL, _ links.Token) (links.Claim, error) {
				<-ctx.Done()

				return links.Claim{}, ctx.Err()
			},
		}
		r := links.NewResolver(stub, zap.NewNop(), links.WithStoreTimeout(20*time.Millisecond))

		start := time.Now()
		_, err := r.Claim(ctx, full, target)

		require.ErrorIs(t, err, links.ErrStorageUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})
}
