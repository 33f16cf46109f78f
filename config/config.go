// Package config reads the TOML configuration of the pdfstamp command.
package config

import (
	"compress/zlib"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/digitorus/pdfstamp"
	"github.com/digitorus/pdfstamp/colors"
	"github.com/digitorus/pdfstamp/images"
)

func init() {
	govalidator.SetFieldsRequiredByDefault(true)
}

// DefaultLocation of the config file.
var DefaultLocation = "./pdfstamp.toml"

// Config is the root of the config
type Config struct {
	Server  Server  `toml:"server" valid:"optional"`
	Storage Storage `toml:"storage" valid:"optional"`
	Stamp   Stamp   `toml:"stamp" valid:"optional"`
	Log     Log     `toml:"log" valid:"optional"`
}

// Server configures the HTTP transport.
type Server struct {
	Listen      string `toml:"listen" valid:"required"`
	MaxUploadMB int    `toml:"max_upload_mb" valid:"range(1|1024)"`
	AllowOrigin string `toml:"allow_origin" valid:"optional"`
}

// Storage configures the document store. An empty Dir disables it.
type Storage struct {
	Dir string `toml:"dir" valid:"optional"`
}

// Stamp holds the defaults of the signature engine.
type Stamp struct {
	ImageScale         float64 `toml:"image_scale" valid:"required"`
	DefaultFont        string  `toml:"default_font" valid:"required"`
	DefaultFontSize    float64 `toml:"default_font_size" valid:"range(1|1000)"`
	DefaultColor       string  `toml:"default_color" valid:"hexcolor"`
	CompressLevel      int     `toml:"compress_level" valid:"optional"`
	MaxImagePixels     int     `toml:"max_image_pixels" valid:"optional"`
	RejectUnknownTypes bool    `toml:"reject_unknown_types" valid:"optional"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level" valid:"in(debug|info|warn|error)"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Listen:      ":8080",
			MaxUploadMB: 32,
			AllowOrigin: "*",
		},
		Storage: Storage{
			Dir: "./data",
		},
		Stamp: Stamp{
			ImageScale:      pdfstamp.DefaultImageScale,
			DefaultFont:     pdfstamp.DefaultFont,
			DefaultFontSize: pdfstamp.DefaultFontSize,
			DefaultColor:    pdfstamp.DefaultColor,
			CompressLevel:   -1,
			MaxImagePixels:  images.DefaultMaxPixels,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// ValidateFields validates all the fields of the config
func (c Config) ValidateFields() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		return err
	}
	// govalidator ranges only take non-negative integer bounds.
	if c.Stamp.ImageScale <= 0 || c.Stamp.ImageScale > 100 {
		return fmt.Errorf("stamp.image_scale: %g is not in (0, 100]", c.Stamp.ImageScale)
	}
	if c.Stamp.CompressLevel < zlib.HuffmanOnly || c.Stamp.CompressLevel > zlib.BestCompression {
		return fmt.Errorf("stamp.compress_level: %d is not in [%d, %d]", c.Stamp.CompressLevel, zlib.HuffmanOnly, zlib.BestCompression)
	}
	if c.Stamp.MaxImagePixels < 0 {
		return fmt.Errorf("stamp.max_image_pixels: %d is negative", c.Stamp.MaxImagePixels)
	}
	// govalidator accepts the three digit form, the engine does not.
	if _, err := colors.ParseHex(c.Stamp.DefaultColor); err != nil {
		return fmt.Errorf("stamp.default_color: %w", err)
	}
	return nil
}

// Read overlays the file at path on the defaults and validates the result.
func Read(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file is missing: %w", err)
	}

	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %s in %s", undecoded[0], path)
	}

	if err := c.ValidateFields(); err != nil {
		return nil, fmt.Errorf("config is not valid: %w", err)
	}
	return c, nil
}

// Load reads path when it exists and returns the defaults otherwise. An
// explicitly requested file must exist.
func Load(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !explicit {
		return Default(), nil
	}
	return Read(path)
}

// StamperOptions converts the stamp section into engine options.
func (c *Config) StamperOptions(logger *zap.Logger) pdfstamp.Options {
	level := c.Stamp.CompressLevel
	return pdfstamp.Options{
		ImageScale:         c.Stamp.ImageScale,
		DefaultFont:        c.Stamp.DefaultFont,
		DefaultFontSize:    c.Stamp.DefaultFontSize,
		DefaultColor:       c.Stamp.DefaultColor,
		CompressLevel:      &level,
		MaxImagePixels:     c.Stamp.MaxImagePixels,
		RejectUnknownTypes: c.Stamp.RejectUnknownTypes,
		Logger:             logger,
	}
}

// MaxUploadBytes is the upload limit of the server in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// NewLogger builds a logger for the configured level. The debug level
// selects zap's development configuration.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
