package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test-token")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SUPER_ADMIN_IDS", "1,2")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, cfg.Bot.SuperAdminIDs)
	assert.Equal(t, 10*time.Minute, cfg.Bot.ConversationTimeout)
	assert.Equal(t, 8, cfg.Workday.StartHour)
	assert.Equal(t, 19, cfg.Workday.EndHour)
	assert.Equal(t, 15*time.Minute, cfg.Workday.LateTolerance)
	assert.Equal(t, 6, cfg.Breaks.SmokeQuotaWeekday)
	assert.Equal(t, 3, cfg.Breaks.SmokeQuotaFriday)
	assert.Equal(t, 90*time.Minute, cfg.Breaks.SmokeMinInterval)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SUPER_ADMIN_IDS", "1")

	_, err := Load()
	assert.ErrorContains(t, err, "BOT_TOKEN")
}

func TestLoadRejectsBadSuperAdminID(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test-token")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SUPER_ADMIN_IDS", "1,omar")

	_, err := Load()
	assert.ErrorContains(t, err, "SUPER_ADMIN_IDS")
}
