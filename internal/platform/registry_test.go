package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsynq/adsynq/internal/models"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(
		NewMeta(MetaConfig{}, Deps{}),
		NewGoogle(GoogleConfig{}, Deps{}),
	)

	assert.Equal(t, []models.Platform{models.PlatformGoogle, models.PlatformMeta}, r.Enabled())

	p, err := r.Get(models.PlatformMeta)
	require.NoError(t, err)
	assert.Equal(t, models.PlatformMeta, p.Platform())

	_, err = r.Get(models.PlatformTikTok)
	assert.ErrorIs(t, err, ErrPlatformDisabled)

	_, err = r.Get("myspace")
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}
