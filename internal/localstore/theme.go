package localstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Display themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const themeKey = "theme"

// Theme returns the persisted display theme, defaulting to light.
func Theme(ctx context.Context, db *sql.DB) (string, error) {
	value, ok, err := Get(ctx, db, themeKey)
	if err != nil {
		return "", err
	}
	if !ok || (value != ThemeLight && value != ThemeDark) {
		return ThemeLight, nil
	}
	return value, nil
}

// SetTheme persists the display theme.
func SetTheme(ctx context.Context, db *sql.DB, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	return Set(ctx, db, themeKey, theme)
}
