package links_test

import (
	"strings"
	"testing"

	"github.com/serroba/hashlink/internal/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected links.CanonicalURL
	}{
		{"adds http scheme", "google.com", "http://google.com"},
		{"keeps https", "https://google.com", "https://google.com"},
		{"strips trailing slash", "http://google.com/", "http://google.com"},
		{"strips repeated trailing slashes", "http://google.com///", "http://google.com"},
		{"strips trailing whitespace", "http://google.com/  \t\n", "http://google.com"},
		{"lowercases host", "http://ABC.example/", "http://abc.example"},
		{"lowercases scheme", "HTTPS://example.com", "https://example.com"},
		{"keeps path case", "http://example.com/Some/Path", "http://example.com/Some/Path"},
		{"keeps query", "https://example.com/search?q=Go&page=2", "https://example.com/search?q=Go&page=2"},
		{"keeps fragment", "https://example.com/page#section", "https://example.com/page#section"},
		{"keeps fragment route", "https://app.example.com/#/settings/billing/", "https://app.example.com/#/settings/billing"},
		{"keeps port", "http://example.com:8080/x", "http://example.com:8080/x"},
		{"accepts localhost", "http://localhost:5000", "http://localhost:5000"},
		{"adds http scheme before host and port", "localhost:5000/x", "http://localhost:5000/x"},
		{"accepts ipv4", "http://127.0.0.1/a", "http://127.0.0.1/a"},
		{"accepts ipv6", "http://[::1]:8080/a", "http://[::1]:8080/a"},
		{"drops trailing dot of fqdn", "http://example.com./a", "http://example.com/a"},
		{"encodes internationalized host", "http://韩煎.韩国", "http://xn--duxn73f.xn--vcst42m"},
		{"folds case in internationalized host", "http://BÜCHER.example", "http://xn--bcher-kva.example"},
		{"escapes unicode path", "http://example.com/ü", "http://example.com/%C3%BC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := links.Canonicalize(tt.raw)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCanonicalize_IsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"google.com",
		"http://ABC.example/",
		"https://example.com/a/b/?x=1",
		"http://韩煎.韩国/ü",
		"https://example.com/#",
	}

	for _, raw := range inputs {
		once, err := links.Canonicalize(raw)
		require.NoError(t, err, raw)

		twice, err := links.Canonicalize(string(once))
		require.NoError(t, err, raw)

		assert.Equal(t, once, twice, raw)
		assert.False(t, strings.HasSuffix(string(once), "/"), raw)
	}
}

func TestCanonicalize_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"only whitespace", "   "},
		{"only slashes", "///"},
		{"spaces in host", "not a url"},
		{"scheme without host", "http://"},
		{"bare number", "12345"},
		{"single label host", "http://intranet"},
		{"ftp scheme", "ftp://example.com/file"},
		{"javascript scheme", "javascript:alert(1)"},
		{"mailto scheme", "mailto:someone@example.com"},
		{"too long", "http://example.com/" + strings.Repeat("a", links.MaxURLLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := links.Canonicalize(tt.raw)

			assert.Empty(t, got)
			assert.ErrorIs(t, err, links.ErrInvalidURL)
		})
	}
}

func TestCanonicalize_AcceptsMaximumLength(t *testing.T) {
	t.Parallel()

	prefix := "http://example.com/"
	raw := prefix + strings.Repeat("a", links.MaxURLLength-len(prefix))

	got, err := links.Canonicalize(raw)

	require.NoError(t, err)
	assert.Len(t, string(got), links.MaxURLLength)
}
