package gateway

import (
	"context"
	"strconv"
)

// SystemPreferenceQuery asks the surrounding platform for its display
// preference, used only when nothing was persisted yet.
type SystemPreferenceQuery func() DisplayPreferences

// ResolveDisplayPreferences resolves dark-mode/high-contrast from the
// durable store, falling back to the OS-level query when no stored
// preference exists. Runs independently of the boot sequence.
func ResolveDisplayPreferences(ctx context.Context, store Store, query SystemPreferenceQuery) DisplayPreferences {
	prefs := DisplayPreferences{}

	dark, darkStored := storedBool(ctx, store, KeyDarkMode)
	contrast, contrastStored := storedBool(ctx, store, KeyHighContrast)

	if darkStored || contrastStored {
		prefs.DarkMode = dark
		prefs.HighContrast = contrast
		return prefs
	}

	if query != nil {
		return query()
	}
	return prefs
}

// SaveDisplayPreferences persists an explicit user choice so the system
// query is no longer consulted.
func SaveDisplayPreferences(ctx context.Context, store Store, prefs DisplayPreferences) error {
	if err := store.Set(ctx, KeyDarkMode, strconv.FormatBool(prefs.DarkMode)); err != nil {
		return err
	}
	return store.Set(ctx, KeyHighContrast, strconv.FormatBool(prefs.HighContrast))
}

func storedBool(ctx context.Context, store Store, key string) (value, ok bool) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return false, false
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return parsed, true
}
