package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		App: AppConfig{
			Environment: "development",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Directories: DirectoriesConfig{
			Content: "/library",
			Data:    "/data",
		},
		Image: ImageConfig{
			Format:  "jpeg",
			Quality: 50,
		},
		Scanner: ScannerConfig{
			Workers: 4,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validTestConfig()

	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validTestConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"WARN", true}, // levels are case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validTestConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_RequiresContentDirectory(t *testing.T) {
	cfg := validTestConfig()
	cfg.Directories.Content = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content directory")
}

func TestValidate_ImageFormat(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"jpeg", true},
		{"png", true},
		{"webp", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg := validTestConfig()
			cfg.Image.Format = tt.format

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_ImageQualityBounds(t *testing.T) {
	cfg := validTestConfig()

	cfg.Image.Quality = 0
	assert.Error(t, cfg.Validate())

	cfg.Image.Quality = 101
	assert.Error(t, cfg.Validate())

	cfg.Image.Quality = 100
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ScannerWorkers(t *testing.T) {
	cfg := validTestConfig()
	cfg.Scanner.Workers = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker")
}

func TestDatabasePath(t *testing.T) {
	d := DirectoriesConfig{Data: "/var/lib/stackshelf"}
	assert.Equal(t, filepath.Join("/var/lib/stackshelf", "stackshelf.db"), d.DatabasePath())
}

func TestImageConfigExtension(t *testing.T) {
	assert.Equal(t, "png", ImageConfig{Format: "png"}.Extension())
	assert.Equal(t, "jpeg", ImageConfig{Format: "jpeg"}.Extension())
	assert.Equal(t, "jpeg", ImageConfig{}.Extension())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Run("empty uses default", func(t *testing.T) {
		got, err := expandPath("", "/fallback")
		require.NoError(t, err)
		assert.Equal(t, "/fallback", got)
	})

	t.Run("tilde expands to home", func(t *testing.T) {
		got, err := expandPath("~/library", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "library"), got)
	})

	t.Run("absolute stays put", func(t *testing.T) {
		got, err := expandPath("/srv/archives", "")
		require.NoError(t, err)
		assert.Equal(t, "/srv/archives", got)
	})

	t.Run("relative becomes absolute", func(t *testing.T) {
		got, err := expandPath("archives", "")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestExpandDirectories_Defaults(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := validTestConfig()
	cfg.Directories = DirectoriesConfig{Content: "/library"}

	require.NoError(t, cfg.expandDirectories())
	assert.Equal(t, filepath.Join(home, "StackShelf", "data"), cfg.Directories.Data)
	assert.Equal(t, filepath.Join(cfg.Directories.Data, "thumbs"), cfg.Directories.Thumbs)
}

func TestExpandDirectories_ExplicitThumbs(t *testing.T) {
	cfg := validTestConfig()
	cfg.Directories = DirectoriesConfig{
		Content: "/library",
		Data:    "/data",
		Thumbs:  "/fast-disk/thumbs",
	}

	require.NoError(t, cfg.expandDirectories())
	assert.Equal(t, "/fast-disk/thumbs", cfg.Directories.Thumbs)
}

func TestGetConfigValue_Precedence(t *testing.T) {
	const envKey = "STACKSHELF_TEST_VALUE"
	t.Setenv(envKey, "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", envKey, "default"))
	assert.Equal(t, "from-env", getConfigValue("", envKey, "default"))

	os.Unsetenv(envKey)
	assert.Equal(t, "default", getConfigValue("", envKey, "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	const envKey = "STACKSHELF_TEST_BOOL"

	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"0", false},
		{"anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(envKey, tt.value)
			assert.Equal(t, tt.want, getBoolConfigValue("", envKey, !tt.want))
		})
	}

	os.Unsetenv(envKey)
	assert.True(t, getBoolConfigValue("", envKey, true))
	assert.False(t, getBoolConfigValue("", envKey, false))
}

func TestGetIntConfigValue(t *testing.T) {
	const envKey = "STACKSHELF_TEST_INT"

	t.Setenv(envKey, "12")
	assert.Equal(t, 12, getIntConfigValue("", envKey, 4))

	t.Setenv(envKey, "not-a-number")
	assert.Equal(t, 4, getIntConfigValue("", envKey, 4))
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("45s", "STACKSHELF_TEST_DURATION", "15s")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	d, err = parseDurationValue("", "STACKSHELF_TEST_DURATION", "15s")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, d)

	_, err = parseDurationValue("soon", "STACKSHELF_TEST_DURATION", "15s")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := `# comment line
STACKSHELF_TEST_FILE_A=alpha
STACKSHELF_TEST_FILE_B="quoted value"

STACKSHELF_TEST_FILE_C='single'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("STACKSHELF_TEST_FILE_A")
		os.Unsetenv("STACKSHELF_TEST_FILE_B")
		os.Unsetenv("STACKSHELF_TEST_FILE_C")
	})

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "alpha", os.Getenv("STACKSHELF_TEST_FILE_A"))
	assert.Equal(t, "quoted value", os.Getenv("STACKSHELF_TEST_FILE_B"))
	assert.Equal(t, "single", os.Getenv("STACKSHELF_TEST_FILE_C"))
}

func TestLoadEnvFile_EnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("STACKSHELF_TEST_WINS=file\n"), 0o644))

	t.Setenv("STACKSHELF_TEST_WINS", "env")
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "env", os.Getenv("STACKSHELF_TEST_WINS"))
}

func TestLoadEnvFile_InvalidLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOT A PAIR\n"), 0o644))

	err := loadEnvFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoadEnvFile_Missing(t *testing.T) {
	err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}
