package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/digitorus/pdfstamp/config"
	"github.com/digitorus/pdfstamp/images"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pdfstamp.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfig(t *testing.T) {
	const configContent = `
[server]
listen = "127.0.0.1:9000"
max_upload_mb = 8

[storage]
dir = "/var/lib/pdfstamp"

[stamp]
image_scale = 0.5
default_font = "Times-Roman"
default_font_size = 14.0
default_color = "#336699"
compress_level = 9
max_image_pixels = 1000000
reject_unknown_types = true

[log]
level = "debug"
`

	c, err := config.Read(writeConfig(t, configContent))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", c.Server.Listen)
	assert.Equal(t, 8, c.Server.MaxUploadMB)
	assert.Equal(t, int64(8<<20), c.MaxUploadBytes())
	assert.Equal(t, "*", c.Server.AllowOrigin, "defaults are kept for missing keys")
	assert.Equal(t, "/var/lib/pdfstamp", c.Storage.Dir)
	assert.Equal(t, 0.5, c.Stamp.ImageScale)
	assert.Equal(t, "Times-Roman", c.Stamp.DefaultFont)
	assert.Equal(t, 14.0, c.Stamp.DefaultFontSize)
	assert.Equal(t, "#336699", c.Stamp.DefaultColor)
	assert.Equal(t, 9, c.Stamp.CompressLevel)
	assert.Equal(t, 1000000, c.Stamp.MaxImagePixels)
	assert.True(t, c.Stamp.RejectUnknownTypes)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestDefault(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.ValidateFields())

	assert.Equal(t, ":8080", c.Server.Listen)
	assert.Equal(t, 0.2, c.Stamp.ImageScale)
	assert.Equal(t, "Helvetica", c.Stamp.DefaultFont)
	assert.Equal(t, 12.0, c.Stamp.DefaultFontSize)
	assert.Equal(t, "#000000", c.Stamp.DefaultColor)
	assert.Equal(t, -1, c.Stamp.CompressLevel)
	assert.Equal(t, images.DefaultMaxPixels, c.Stamp.MaxImagePixels)
	assert.Equal(t, "info", c.Log.Level)
}

func TestValidation(t *testing.T) {
	tests := map[string]string{
		"empty listen":   "[server]\nlisten = \"\"",
		"upload limit":   "[server]\nmax_upload_mb = 0",
		"log level":      "[log]\nlevel = \"verbose\"",
		"color":          "[stamp]\ndefault_color = \"blue\"",
		"short color":    "[stamp]\ndefault_color = \"#fff\"",
		"scale":          "[stamp]\nimage_scale = -1.0",
		"font size":      "[stamp]\ndefault_font_size = 5000.0",
		"compression":    "[stamp]\ncompress_level = 12",
		"unknown key":    "[stamp]\nfont = \"Helvetica\"",
		"invalid toml":   "[stamp",
		"empty font":     "[stamp]\ndefault_font = \"\"",
		"negative limit": "[server]\nmax_upload_mb = -5",
		"pixel limit":    "[stamp]\nmax_image_pixels = -1",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Read(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestValidationOfDecodedStruct(t *testing.T) {
	var c config.Config
	if _, err := toml.Decode(``, &c); err != nil {
		t.Error(err)
	}

	err := c.ValidateFields()
	assert.NotNil(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := config.Read(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.toml")

	c, err := config.Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)

	_, err = config.Load(missing, true)
	assert.Error(t, err)
}

func TestStamperOptions(t *testing.T) {
	c := config.Default()
	c.Stamp.CompressLevel = 0
	logger := zap.NewNop()

	opts := c.StamperOptions(logger)
	assert.Equal(t, 0.2, opts.ImageScale)
	assert.Equal(t, "Helvetica", opts.DefaultFont)
	require.NotNil(t, opts.CompressLevel)
	assert.Equal(t, 0, *opts.CompressLevel)
	assert.Equal(t, images.DefaultMaxPixels, opts.MaxImagePixels)
	assert.Same(t, logger, opts.Logger)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		c := config.Default()
		c.Log.Level = level
		logger, err := c.NewLogger()
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	c := config.Default()
	c.Log.Level = "loud"
	_, err := c.NewLogger()
	assert.Error(t, err)
}
