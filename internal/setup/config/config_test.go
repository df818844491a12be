package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robalyx/verdict/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigs(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, name+".toml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func validFiles() map[string]string {
	return map[string]string{
		"common": "[common]\nversion = 1\n",
		"api":    "[api]\nversion = 1\nport = 9000\n",
		"worker": "[worker]\nversion = 1\n",
	}
}

func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeConfigs(t, dir, validFiles())

		cfg, used, err := config.LoadConfigFrom([]string{filepath.Join(dir, "missing"), dir})
		require.NoError(t, err)
		assert.Equal(t, dir, used)
		assert.Equal(t, 9000, cfg.API.Port)
		assert.Equal(t, "X-User-ID", cfg.API.IdentityHeader)
		assert.Equal(t, int64(10), cfg.Common.Settlement.Payouts["community"])
		assert.Equal(t, int64(25), cfg.Common.Settlement.Payouts["standard"])
		assert.Equal(t, int64(50), cfg.Common.Settlement.Payouts["pro"])
		assert.Equal(t, config.CreditGateAllow, cfg.Common.Settlement.CreditGate)
		assert.Equal(t, 3, cfg.Common.Settlement.EarningAttempts)
		assert.Equal(t, 10, cfg.Common.Reputation.GracePeriodReviews)
		assert.Equal(t, int64(10), cfg.Worker.MaxDeliveries)
		assert.Equal(t, 60000, cfg.Worker.ClaimIdle)
	})

	t.Run("keeps configured payouts", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		files := validFiles()
		files["common"] = "[common]\nversion = 1\n[common.settlement.payouts]\npro = 75\n"
		writeConfigs(t, dir, files)

		cfg, _, err := config.LoadConfigFrom([]string{dir})
		require.NoError(t, err)
		assert.Equal(t, int64(75), cfg.Common.Settlement.Payouts["pro"])
		assert.Equal(t, int64(10), cfg.Common.Settlement.Payouts["community"])
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		files := validFiles()
		delete(files, "worker")
		writeConfigs(t, dir, files)

		_, _, err := config.LoadConfigFrom([]string{dir})
		require.ErrorIs(t, err, config.ErrConfigFileNotFound)
	})

	t.Run("missing version", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		files := validFiles()
		files["api"] = "[api]\nport = 9000\n"
		writeConfigs(t, dir, files)

		_, _, err := config.LoadConfigFrom([]string{dir})
		require.ErrorIs(t, err, config.ErrConfigVersionMissing)
	})

	t.Run("version mismatch", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		files := validFiles()
		files["common"] = "[common]\nversion = 7\n"
		writeConfigs(t, dir, files)

		_, _, err := config.LoadConfigFrom([]string{dir})
		require.ErrorIs(t, err, config.ErrConfigVersionMismatch)
	})

	t.Run("invalid credit gate", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		files := validFiles()
		files["common"] = "[common]\nversion = 1\n[common.settlement]\ncredit_gate = \"sometimes\"\n"
		writeConfigs(t, dir, files)

		_, _, err := config.LoadConfigFrom([]string{dir})
		require.ErrorIs(t, err, config.ErrInvalidCreditGate)
	})
}
