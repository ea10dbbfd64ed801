package assets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticResolver_Resolve(t *testing.T) {
	resolver := NewStaticResolver("https://cdn.example.com/ ")

	got, err := resolver.Resolve(context.Background(), "men_cold_1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/outfits/men_cold_1.png", got)
}

func TestSanitizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"https://storage.example.com":     "storage.example.com",
		"http://storage.example.com/path": "storage.example.com",
		"storage.example.com":             "storage.example.com",
		"  https://storage.example.com  ": "storage.example.com",
		"":                                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeEndpoint(in), "input %q", in)
	}
}
