package gateway_test

import (
	"context"
	"errors"
	"testing"

	gateway "github.com/goliatone/go-gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) {
	return "", errors.New("store unavailable")
}

func (brokenStore) Set(context.Context, string, string) error {
	return errors.New("store unavailable")
}

func (brokenStore) Delete(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestResolveDisplayPreferencesFromStore(t *testing.T) {
	ctx := context.Background()
	store := gateway.NewMemoryStore()

	require.NoError(t, gateway.SaveDisplayPreferences(ctx, store, gateway.DisplayPreferences{
		DarkMode:     true,
		HighContrast: false,
	}))

	// a stored choice wins over whatever the system reports
	prefs := gateway.ResolveDisplayPreferences(ctx, store, func() gateway.DisplayPreferences {
		return gateway.DisplayPreferences{DarkMode: false, HighContrast: true}
	})

	assert.True(t, prefs.DarkMode)
	assert.False(t, prefs.HighContrast)
}

func TestResolveDisplayPreferencesSystemFallback(t *testing.T) {
	ctx := context.Background()
	store := gateway.NewMemoryStore()

	prefs := gateway.ResolveDisplayPreferences(ctx, store, func() gateway.DisplayPreferences {
		return gateway.DisplayPreferences{HighContrast: true}
	})

	assert.False(t, prefs.DarkMode)
	assert.True(t, prefs.HighContrast)
}

func TestResolveDisplayPreferencesNoSources(t *testing.T) {
	prefs := gateway.ResolveDisplayPreferences(context.Background(), gateway.NewMemoryStore(), nil)

	assert.Equal(t, gateway.DisplayPreferences{}, prefs)
}

func TestResolveDisplayPreferencesUnreachableStore(t *testing.T) {
	prefs := gateway.ResolveDisplayPreferences(context.Background(), brokenStore{}, func() gateway.DisplayPreferences {
		return gateway.DisplayPreferences{DarkMode: true}
	})

	assert.True(t, prefs.DarkMode, "a failing store falls back to the system query")
}

func TestResolveDisplayPreferencesIgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	store := gateway.NewMemoryStore()
	require.NoError(t, store.Set(ctx, gateway.KeyDarkMode, "not-a-bool"))

	prefs := gateway.ResolveDisplayPreferences(ctx, store, func() gateway.DisplayPreferences {
		return gateway.DisplayPreferences{DarkMode: true}
	})

	assert.True(t, prefs.DarkMode, "an unreadable stored value falls back to the system query")
}
