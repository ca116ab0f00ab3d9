package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
server:
  port: "9090"
  mode: debug
jwt:
  secret: dev-secret
challenges:
  timezone: Asia/Bangkok
  lock_wait_seconds: 3
  catalog:
    - kind: xp_goal
      title: Earn 100 XP
      target_value: 100
      difficulty: medium
      rewards:
        xp_bonus: 50
    - kind: perfect_scores
      target_value: 3
      difficulty: hard
      levels: [Intermediate, Advanced]
      rewards:
        xp_bonus: 75
        badge: flawless
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, testConfig)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, dir, cfg.Path)
	assert.Equal(t, 3*time.Second, cfg.Challenges.LockWait())
	assert.Equal(t, 10*time.Second, cfg.Challenges.LockTTL())
	assert.Equal(t, 64, cfg.Challenges.CacheSize)
	assert.Equal(t, 600, cfg.RateLimit.MaxRequests)

	require.Len(t, cfg.Challenges.Catalog, 2)
	assert.Equal(t, "xp_goal", cfg.Challenges.Catalog[0].Kind)
	assert.Equal(t, 50, cfg.Challenges.Catalog[0].Rewards.XPBonus)
	assert.Equal(t, []string{"Intermediate", "Advanced"}, cfg.Challenges.Catalog[1].Levels)
	assert.Equal(t, "flawless", cfg.Challenges.Catalog[1].Rewards.Badge)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := writeConfig(t, testConfig)
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("CHALLENGES_TIMEZONE", "UTC")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "UTC", cfg.Challenges.Timezone)
}

func TestLoadConfig_Rejects(t *testing.T) {
	t.Run("short secret in release", func(t *testing.T) {
		dir := writeConfig(t, "server:\n  mode: release\njwt:\n  secret: short\n")
		_, err := LoadConfig(dir)
		assert.Error(t, err)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		dir := writeConfig(t, "challenges:\n  timezone: Mars/Olympus\n")
		_, err := LoadConfig(dir)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(t.TempDir())
		assert.Error(t, err)
	})
}
