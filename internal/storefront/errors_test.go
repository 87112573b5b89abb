package storefront

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	table := []struct {
		name     string
		body     string
		expected int
	}{
		{name: "short body untouched", body: "not found", expected: 9},
		{name: "ascii cut at limit", body: strings.Repeat("x", 2000), expected: maxErrorBody},
		{name: "two byte rune on the limit", body: "x" + strings.Repeat("é", 300), expected: 499},
		{name: "three byte rune on the limit", body: "xx" + strings.Repeat("€", 300), expected: 500},
		{name: "three byte rune across the limit", body: "x" + strings.Repeat("€", 300), expected: 499},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			out := truncate([]byte(test.body), maxErrorBody)
			require.Len(t, out, test.expected)
			require.True(t, utf8.ValidString(out))
			require.True(t, strings.HasPrefix(test.body, out))
		})
	}
}
