package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogoIsCached(t *testing.T) {
	first, err := Logo(LogoActive)
	require.NoError(t, err)
	assert.Equal(t, LogoActive, first.Name())
	assert.Contains(t, string(first.Content()), "<svg")

	second := MustLogo(LogoActive)
	assert.Same(t, first, second)
}

func TestLogoMissing(t *testing.T) {
	_, err := Logo("missing.svg")
	assert.Error(t, err)
	assert.Panics(t, func() { MustLogo("missing.svg") })
}
