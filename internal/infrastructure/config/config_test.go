package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempDataDir(t *testing.T) string {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "insightloop-config-test-*")
	require.NoError(t, err)

	ResetDataDir()
	t.Setenv(EnvDataDir, tmpDir)

	t.Cleanup(func() {
		ResetDataDir()
		os.RemoveAll(tmpDir)
	})

	return tmpDir
}

func TestGetDataDir_EnvOverride(t *testing.T) {
	tmpDir := withTempDataDir(t)

	assert.Equal(t, tmpDir, GetDataDir())
}

func TestNewConfig_MissingFileUsesDefaults(t *testing.T) {
	withTempDataDir(t)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, ":19980", cfg.Server.HTTPPort)
	assert.Equal(t, "localhost", cfg.Vector.Host)
	assert.Equal(t, 6334, cfg.Vector.Port)
	assert.Equal(t, "default", cfg.Knowledge.DefaultOrgID)
}

func TestNewConfig_FileOverlaysDefaults(t *testing.T) {
	tmpDir := withTempDataDir(t)

	content := []byte("server:\n  http_port: \":8080\"\nvector:\n  host: qdrant.internal\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), content, 0644))

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPPort)
	assert.Equal(t, "qdrant.internal", cfg.Vector.Host)
	// 未覆盖的字段保持默认值
	assert.Equal(t, ":19981", cfg.Server.MCPPort)
	assert.Equal(t, 6334, cfg.Vector.Port)
}

func TestSaveConfig_APIKeyEncryptedOnDisk(t *testing.T) {
	tmpDir := withTempDataDir(t)

	cfg := DefaultConfig()
	cfg.Inference.APIKey = "sk-test-secret"
	require.NoError(t, SaveConfig(cfg))

	// 原始配置不被修改
	assert.Equal(t, "sk-test-secret", cfg.Inference.APIKey)

	data, err := os.ReadFile(filepath.Join(tmpDir, "config.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-test-secret")

	// 重新加载后解密还原
	loaded, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "sk-test-secret", loaded.Inference.APIKey)
}

func TestKeystore_RoundTrip(t *testing.T) {
	withTempDataDir(t)

	ks, err := NewKeystore()
	require.NoError(t, err)

	encrypted, err := ks.Encrypt("hello-world")
	require.NoError(t, err)
	assert.NotEqual(t, "hello-world", encrypted)

	decrypted, err := ks.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", decrypted)
}

func TestKeystore_DecryptPlainTextFallsBack(t *testing.T) {
	withTempDataDir(t)

	ks, err := NewKeystore()
	require.NoError(t, err)

	// 非 base64 的旧数据原样返回
	decrypted, err := ks.Decrypt("not-encrypted!")
	require.NoError(t, err)
	assert.Equal(t, "not-encrypted!", decrypted)
}

func TestDocsDir_DefaultsUnderDataDir(t *testing.T) {
	tmpDir := withTempDataDir(t)

	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join(tmpDir, "knowledge"), cfg.DocsDir())

	cfg.Knowledge.DocsDir = "/srv/docs"
	assert.Equal(t, "/srv/docs", cfg.DocsDir())
}
