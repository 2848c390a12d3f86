package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/serroba/hashlink/internal/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behaviour every links.Store backend must share.
// URLs and tokens are unique per call so persistent backends need no cleanup between runs.
func runStoreContract(t *testing.T, s links.Store) {
	t.Helper()

	ctx := context.Background()
	run := uuid.NewString()[:8]

	url := func(name string) links.CanonicalURL {
		return links.CanonicalURL(fmt.Sprintf("https://%s.example/%s", run, name))
	}

	token := func(name string) links.Token {
		return links.Token(run + name)
	}

	t.Run("claims a free token", func(t *testing.T) {
		claim, err := s.StoreOrReuse(ctx, url("claim"), token("claim"))

		require.NoError(t, err)
		assert.Equal(t, links.OutcomeClaimed, claim.Outcome)
		assert.Equal(t, token("claim"), claim.Token)

		byToken, err := s.LookupByToken(ctx, token("claim"))
		require.NoError(t, err)
		assert.Equal(t, url("claim"), byToken.URL)

		byURL, err := s.LookupByURL(ctx, url("claim"))
		require.NoError(t, err)
		assert.Equal(t, token("claim"), byURL.Token)
		assert.Equal(t, claim.ID, byURL.ID)
	})

	t.Run("reuses the stored token for a known url", func(t *testing.T) {
		_, err := s.StoreOrReuse(ctx, url("reuse"), token("reuse"))
		require.NoError(t, err)

		claim, err := s.StoreOrReuse(ctx, url("reuse"), token("reuseLonger"))

		require.NoError(t, err)
		assert.Equal(t, links.OutcomeReused, claim.Outcome)
		assert.Equal(t, token("reuse"), claim.Token)

		_, err = s.LookupByToken(ctx, token("reuseLonger"))
		assert.ErrorIs(t, err, links.ErrNotFound)
	})

	t.Run("reports a collision for a token bound to another url", func(t *testing.T) {
		_, err := s.StoreOrReuse(ctx, url("owner"), token("shared"))
		require.NoError(t, err)

		claim, err := s.StoreOrReuse(ctx, url("intruder"), token("shared"))

		require.NoError(t, err)
		assert.Equal(t, links.OutcomeCollision, claim.Outcome)

		_, err = s.LookupByURL(ctx, url("intruder"))
		assert.ErrorIs(t, err, links.ErrNotFound)

		owner, err := s.LookupByToken(ctx, token("shared"))
		require.NoError(t, err)
		assert.Equal(t, url("owner"), owner.URL)
	})

	t.Run("returns ErrNotFound for unknown keys", func(t *testing.T) {
		_, err := s.LookupByToken(ctx, token("missing"))
		assert.ErrorIs(t, err, links.ErrNotFound)

		_, err = s.LookupByURL(ctx, url("missing"))
		assert.ErrorIs(t, err, links.ErrNotFound)
	})

	t.Run("concurrent claims of one url insert once", func(t *testing.T) {
		outcomes := concurrently(t, 16, func(int) (links.Claim, error) {
			return s.StoreOrReuse(ctx, url("race"), token("race"))
		})

		assert.Equal(t, 1, outcomes[links.OutcomeClaimed])
		assert.Equal(t, 15, outcomes[links.OutcomeReused])
	})

	t.Run("concurrent claims of one token by different urls succeed once", func(t *testing.T) {
		outcomes := concurrently(t, 16, func(i int) (links.Claim, error) {
			return s.StoreOrReuse(ctx, url(fmt.Sprintf("contender%d", i)), token("contested"))
		})

		assert.Equal(t, 1, outcomes[links.OutcomeClaimed])
		assert.Equal(t, 15, outcomes[links.OutcomeCollision])
	})
}

func concurrently(t *testing.T, n int, fn func(i int) (links.Claim, error)) map[links.Outcome]int {
	t.Helper()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = make(map[links.Outcome]int)
		errs     []error
	)

	for i := range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			claim, err := fn(i)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				errs = append(errs, err)

				return
			}

			outcomes[claim.Outcome]++
		}()
	}

	wg.Wait()
	require.Empty(t, errs)

	return outcomes
}
