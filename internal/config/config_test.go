package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile - утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir - смена текущего рабочего каталога с авто-возвратом.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const sampleYAML = `
env: "prod"
api:
  base_url: "https://library.example.com/api"
  user_agent: "library-cli/2"
storage:
  driver: "redis"
  key: "bearer"
  redis_url: "redis://127.0.0.1:6379/2"
  redis_prefix: "lib:"
timeouts:
  request: "3s"
`

const minimalYAML = `
env: "dev"
`

const brokenYAML = `
env: [unclosed
`

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeFile(t, t.TempDir(), "config.yaml", sampleYAML))
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "https://library.example.com/api", cfg.API.BaseURL)
	require.Equal(t, "library-cli/2", cfg.API.UserAgent)
	require.Equal(t, DriverRedis, cfg.Storage.Driver)
	require.Equal(t, "bearer", cfg.Storage.Key)
	require.Equal(t, "redis://127.0.0.1:6379/2", cfg.Storage.RedisURL)
	require.Equal(t, "lib:", cfg.Storage.RedisPrefix)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Request)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeFile(t, t.TempDir(), "min.yaml", minimalYAML))
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "http://127.0.0.1:8080", cfg.API.BaseURL)
	require.Equal(t, "library-client", cfg.API.UserAgent)
	require.Equal(t, DriverFile, cfg.Storage.Driver)
	require.Equal(t, "token", cfg.Storage.Key)
	require.Equal(t, "library:session:", cfg.Storage.RedisPrefix)
	require.Equal(t, 15*time.Second, cfg.Timeouts.Request)
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	t.Parallel()

	_, err := Load(writeFile(t, t.TempDir(), "broken.yaml", brokenYAML))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeFile(t, t.TempDir(), "from_env_path.yaml", minimalYAML))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	chdir(t, t.TempDir())
	writeFile(t, ".", "local.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, DriverRedis, cfg.Storage.Driver)
}

// Явный путь важнее CONFIG_PATH и local.yaml.
func TestLoad_Priority_ExplicitWinsOverEnvAndLocal(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	explicit := writeFile(t, dir, "explicit.yaml", `
env: "prod"
storage: { driver: "memory" }
`)
	t.Setenv("CONFIG_PATH", writeFile(t, dir, "bad.yaml", brokenYAML))
	writeFile(t, ".", "local.yaml", `
env: "local"
storage: { driver: "sqlite" }
`)

	cfg, err := Load(explicit)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, DriverMemory, cfg.Storage.Driver)
}

func TestLoad_EnvOverlay_OverridesValuesFromFile(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "config.yaml", sampleYAML)

	t.Setenv("API_BASE_URL", "http://10.0.0.5:8080")
	t.Setenv("STORAGE_KEY", "alt")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:8080", cfg.API.BaseURL)
	require.Equal(t, "alt", cfg.Storage.Key)
	require.Equal(t, 5*time.Second, cfg.Timeouts.Request)
}

// «Только ENV» без файлов.
func TestLoad_EnvOnly_OK(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	t.Setenv("ENV", "dev")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("STORAGE_SQLITE_PATH", "/tmp/x.db")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, DriverSQLite, cfg.Storage.Driver)

	p, err := cfg.Storage.DatabasePath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/x.db", p)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			API:     APIConfig{BaseURL: "http://127.0.0.1:8080"},
			Storage: StorageConfig{Driver: DriverFile, Key: "token"},
		}
	}

	tcs := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad_scheme", func(c *Config) { c.API.BaseURL = "ftp://x" }},
		{"no_host", func(c *Config) { c.API.BaseURL = "http://" }},
		{"bad_key", func(c *Config) { c.Storage.Key = "../x" }},
		{"empty_key", func(c *Config) { c.Storage.Key = "" }},
		{"unknown_driver", func(c *Config) { c.Storage.Driver = "etcd" }},
		{"redis_without_url", func(c *Config) { c.Storage.Driver = DriverRedis }},
		{"negative_timeout", func(c *Config) { c.Timeouts.Request = -time.Second }},
	}

	ok := valid()
	require.NoError(t, ok.Validate())

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestStorageConfig_Paths(t *testing.T) {
	t.Parallel()

	s := StorageConfig{Dir: "/var/lib/lc"}
	dir, err := s.TokenDir()
	require.NoError(t, err)
	require.Equal(t, "/var/lib/lc", dir)

	db, err := s.DatabasePath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/var/lib/lc", "session.db"), db)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_ = MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
