package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Metadata backends.
const (
	MetadataBackendJSON   = "json"
	MetadataBackendSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Storage  StorageConfig     `yaml:"storage"`
	Assets   AssetsConfig      `yaml:"assets"`
	Metadata MetadataConfig    `yaml:"metadata"`
	Sync     SyncConfig        `yaml:"sync"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Assets.Validate(); err != nil {
		return err
	}
	if err := c.Metadata.Validate(); err != nil {
		return err
	}
	return c.Sync.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig describes the data directory served under /gd/ and the
// static files served at the root.
type StorageConfig struct {
	DataDir   string `yaml:"data_dir"`
	NotesDir  string `yaml:"notes_dir"`
	IndexFile string `yaml:"index_file"`
	PublicDir string `yaml:"public_dir"`
	ViewFile  string `yaml:"view_file"`
}

// NotesPath returns the notes directory on disk.
func (c *StorageConfig) NotesPath() string {
	return filepath.Join(c.DataDir, c.NotesDir)
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.NotesDir, validation.Required, validation.By(singleName)),
		validation.Field(&c.IndexFile, validation.Required, validation.By(singleName)),
	)
}

func singleName(v any) error {
	s, _ := v.(string)
	if filepath.Base(s) != s || s == "." || s == ".." {
		return fmt.Errorf("must be a single path element")
	}
	return nil
}

// AssetsConfig locates the asset event log.
type AssetsConfig struct {
	LogPath string `yaml:"log_path"`
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogPath, validation.Required),
	)
}

// MetadataConfig selects where note metadata is persisted.
type MetadataConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	SQLitePath string `yaml:"sqlite_path"`
	// AllowMissing lets sync treat an absent JSON document as empty. Off by
	// default: a missing document fails the sync like any unreadable source.
	AllowMissing bool `yaml:"allow_missing"`
}

// Validate validates the metadata configuration.
func (c *MetadataConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = MetadataBackendJSON
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(MetadataBackendJSON, MetadataBackendSQLite)),
		validation.Field(&c.Path, validation.When(c.Backend == MetadataBackendJSON, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Backend == MetadataBackendSQLite, validation.Required)),
	)
}

// SyncConfig controls background resynchronization.
type SyncConfig struct {
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds the single Basic credential pair that gates mutations.
// Leaving either value empty locks every mutating route.
type AuthConfig struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			DataDir:   "./.data/gd",
			NotesDir:  "notes",
			IndexFile: "index.gd",
			PublicDir: "./public",
			ViewFile:  "./web/templates/index.html",
		},
		Assets: AssetsConfig{
			LogPath: "./.glitch-assets",
		},
		Metadata: MetadataConfig{
			Backend:    MetadataBackendJSON,
			Path:       "./.data/gd/notes.json",
			SQLitePath: "./.data/jotbox.db",
		},
		Sync: SyncConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}
