package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresBackendBaseURL(t *testing.T) {
	t.Setenv("TILLPOINT_APP_ENV", "development")
	t.Setenv("TILLPOINT_BACKEND_BASE_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TILLPOINT_APP_ENV", "development")
	t.Setenv("TILLPOINT_BACKEND_BASE_URL", "http://localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.App.Port)
	require.True(t, cfg.App.IsDev())
	require.False(t, cfg.POS.PricesIncludeTax)
	require.Equal(t, "pos", cfg.POS.Channel)
	require.Equal(t, []string{"cash", "efectivo"}, cfg.POS.CashKeywords())
	require.Equal(t, 200*time.Millisecond, cfg.Display.MinInterval)
	require.Equal(t, "register-1", cfg.Display.RegisterID)
	require.Equal(t, 10*time.Second, cfg.Backend.Timeout)
}

func TestCashKeywordsTrimsAndLowercases(t *testing.T) {
	p := POSConfig{CashMethodMatches: " Cash , EFECTIVO ,, contante "}
	require.Equal(t, []string{"cash", "efectivo", "contante"}, p.CashKeywords())
}
