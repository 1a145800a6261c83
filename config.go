package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"zoomimage/geom"
	"zoomimage/gesture"
	"zoomimage/subsampling"
	"zoomimage/zoom"
)

// Window size constants
const (
	defaultWidth  = 1024
	defaultHeight = 768
	minWidth      = 400
	minHeight     = 300
)

// Sort method constants
const (
	SortNatural    = 0 // Natural sort order (e.g., file1, file2, file10)
	SortSimple     = 1 // Simple string sort (lexicographical)
	SortEntryOrder = 2 // Maintain original order (no sort)
)

// envPrefix prefixes environment overrides, e.g. ZOOMIMAGE_LOG_LEVEL.
const envPrefix = "ZOOMIMAGE"

// validateKeybindings validates the keybindings configuration
func validateKeybindings(keybindings map[string][]string) error {
	keyToAction := make(map[string]string)
	validKeys := getValidKeyNames()

	for action, keys := range keybindings {
		for _, keyStr := range keys {
			if err := validateKeyString(keyStr, validKeys); err != nil {
				return fmt.Errorf("invalid key '%s' for action '%s': %w", keyStr, action, err)
			}
			if existingAction, exists := keyToAction[keyStr]; exists {
				return fmt.Errorf("key conflict: '%s' is bound to both '%s' and '%s'", keyStr, existingAction, action)
			}
			keyToAction[keyStr] = action
		}
	}

	return nil
}

// validateKeyString validates a single key string format
func validateKeyString(keyStr string, validKeys map[string]bool) error {
	if keyStr == "" {
		return fmt.Errorf("empty key string")
	}
	parts := strings.Split(keyStr, "+")

	// Last part should be the actual key
	keyName := parts[len(parts)-1]
	if !validKeys[keyName] {
		return fmt.Errorf("unknown key: %s", keyName)
	}

	for _, modifier := range parts[:len(parts)-1] {
		if !isModifierName(modifier) {
			return fmt.Errorf("unknown modifier: %s", modifier)
		}
	}

	return nil
}

// getValidKeyNames returns the set of key names accepted in keybindings
func getValidKeyNames() map[string]bool {
	valid := make(map[string]bool)
	for name := range getKeyMapping() {
		valid[name] = true
	}
	return valid
}

// ConfigLoadResult contains the result of loading configuration
type ConfigLoadResult struct {
	Config   Config
	HasError bool
	Warnings []string
	Status   string // "OK", "Default", "Warning", "Error"
}

func (r *ConfigLoadResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
	if r.Status != "Error" {
		r.Status = "Warning"
	}
}

// Config is persisted as JSON in ~/.zoomimage.json. Every scalar field
// can be overridden from the environment with the ZOOMIMAGE_ prefix.
type Config struct {
	WindowWidth  int     `json:"window_width" envconfig:"WINDOW_WIDTH"`
	WindowHeight int     `json:"window_height" envconfig:"WINDOW_HEIGHT"`
	Fullscreen   bool    `json:"fullscreen" envconfig:"FULLSCREEN"`
	HelpFontSize float64 `json:"help_font_size" envconfig:"HELP_FONT_SIZE"`
	SortMethod   int     `json:"sort_method" envconfig:"SORT_METHOD"`
	LogLevel     string  `json:"log_level" envconfig:"LOG_LEVEL"`

	// Preview images
	PreviewCacheSize int  `json:"preview_cache_size" envconfig:"PREVIEW_CACHE_SIZE"`
	PreviewMaxSize   int  `json:"preview_max_size" envconfig:"PREVIEW_MAX_SIZE"`
	PreloadEnabled   bool `json:"preload_enabled" envconfig:"PRELOAD_ENABLED"`
	PreloadCount     int  `json:"preload_count" envconfig:"PRELOAD_COUNT"`

	// Zoom
	ContentScale                     string  `json:"content_scale" envconfig:"CONTENT_SCALE"`
	Alignment                        string  `json:"alignment" envconfig:"ALIGNMENT"`
	ScaleMultiple                    float64 `json:"scale_multiple" envconfig:"SCALE_MULTIPLE"`
	ThreeStepScale                   bool    `json:"three_step_scale" envconfig:"THREE_STEP_SCALE"`
	RubberBandScale                  bool    `json:"rubber_band_scale" envconfig:"RUBBER_BAND_SCALE"`
	ReadMode                         bool    `json:"read_mode" envconfig:"READ_MODE"`
	LimitOffsetWithinBaseVisibleRect bool    `json:"limit_offset_within_base_visible_rect" envconfig:"LIMIT_OFFSET_WITHIN_BASE_VISIBLE_RECT"`
	AnimationDurationMs              int     `json:"animation_duration_ms" envconfig:"ANIMATION_DURATION_MS"`
	GestureTypes                     string  `json:"gesture_types" envconfig:"GESTURE_TYPES"`

	// Subsampling
	Subsampling         bool   `json:"subsampling" envconfig:"SUBSAMPLING"`
	PausedTypes         string `json:"paused_types" envconfig:"PAUSED_TYPES"`
	TileCacheMB         int    `json:"tile_cache_mb" envconfig:"TILE_CACHE_MB"`
	TileCacheDisabled   bool   `json:"tile_cache_disabled" envconfig:"TILE_CACHE_DISABLED"`
	DisallowReuseBitmap bool   `json:"disallow_reuse_bitmap" envconfig:"DISALLOW_REUSE_BITMAP"`
	ShowTileBounds      bool   `json:"show_tile_bounds" envconfig:"SHOW_TILE_BOUNDS"`
	ShowScrollBar       bool   `json:"show_scroll_bar" envconfig:"SHOW_SCROLL_BAR"`

	Keybindings   map[string][]string `json:"keybindings" ignored:"true"`
	Mousebindings map[string][]string `json:"mousebindings" ignored:"true"`
	MouseSettings MouseSettings       `json:"mouse_settings" ignored:"true"`
}

// defaultConfig returns the configuration used when no file exists
func defaultConfig() Config {
	return Config{
		WindowWidth:      defaultWidth,
		WindowHeight:     defaultHeight,
		HelpFontSize:     20.0,
		SortMethod:       SortNatural,
		LogLevel:         "info",
		PreviewCacheSize: 16,
		PreviewMaxSize:   2048,
		PreloadEnabled:   true,
		PreloadCount:     2,

		ContentScale:        geom.ContentScaleFit.String(),
		Alignment:           geom.AlignCenter.String(),
		ScaleMultiple:       zoom.DefaultScaleMultiple,
		RubberBandScale:     true,
		ReadMode:            true,
		AnimationDurationMs: int(zoom.DefaultAnimationSpec().Duration / time.Millisecond),
		GestureTypes:        "all",

		Subsampling:   true,
		PausedTypes:   subsampling.DefaultPausedTypes.String(),
		TileCacheMB:   256,
		ShowScrollBar: true,

		Keybindings:   GetDefaultKeybindings(),
		Mousebindings: GetDefaultMousebindings(),
		MouseSettings: GetDefaultMouseSettings(),
	}
}

func getConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "zoomimage.json"
	}
	return filepath.Join(homeDir, ".zoomimage.json")
}

func loadConfig() ConfigLoadResult {
	return loadConfigFromPath(getConfigPath())
}

func loadConfigFromPath(configPath string) ConfigLoadResult {
	config := defaultConfig()
	result := ConfigLoadResult{
		Config:   config,
		Warnings: []string{},
		Status:   "OK",
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err != nil:
		// Config file not found is not an error - use defaults
		result.Status = "Default"
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			slog.Warn("invalid config file, using defaults", "path", configPath, "err", err)
			result.HasError = true
			result.Status = "Error"
			result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config file: %v", err))
			config = defaultConfig()
		}
	}

	if err := envconfig.Process(envPrefix, &config); err != nil {
		result.warn("Environment overrides ignored: %v", err)
	}

	validateConfig(&config, &result)
	result.Config = config
	return result
}

// validateConfig clamps out-of-range values back to defaults and records a
// warning for every setting it could not parse.
func validateConfig(config *Config, result *ConfigLoadResult) {
	defaults := defaultConfig()

	if config.WindowWidth < minWidth {
		config.WindowWidth = defaultWidth
	}
	if config.WindowHeight < minHeight {
		config.WindowHeight = defaultHeight
	}

	// Validate help font size (minimum 12px for readability)
	if config.HelpFontSize <= 12.0 {
		config.HelpFontSize = defaults.HelpFontSize
	}

	if config.SortMethod < SortNatural || config.SortMethod > SortEntryOrder {
		config.SortMethod = SortNatural
	}

	if _, err := parseLogLevel(config.LogLevel); err != nil {
		result.warn("%v", err)
		config.LogLevel = defaults.LogLevel
	}

	config.PreviewCacheSize = clampInt(config.PreviewCacheSize, 1, 64, defaults.PreviewCacheSize)
	config.PreviewMaxSize = clampInt(config.PreviewMaxSize, 256, 8192, defaults.PreviewMaxSize)
	config.PreloadCount = clampInt(config.PreloadCount, 1, 16, defaults.PreloadCount)
	config.AnimationDurationMs = clampInt(config.AnimationDurationMs, 0, 5000, defaults.AnimationDurationMs)
	config.TileCacheMB = clampInt(config.TileCacheMB, 16, 4096, defaults.TileCacheMB)

	if _, ok := geom.ParseContentScale(config.ContentScale); !ok {
		result.warn("Unknown content scale %q", config.ContentScale)
		config.ContentScale = defaults.ContentScale
	}
	if _, ok := geom.ParseAlignment(config.Alignment); !ok {
		result.warn("Unknown alignment %q", config.Alignment)
		config.Alignment = defaults.Alignment
	}
	if config.ScaleMultiple <= 1 {
		config.ScaleMultiple = defaults.ScaleMultiple
	}
	if _, err := gesture.ParseTypes(config.GestureTypes); err != nil {
		result.warn("%v", err)
		config.GestureTypes = defaults.GestureTypes
	}
	if _, unknown := zoom.ParseContinuousTypes(config.PausedTypes); len(unknown) > 0 {
		result.warn("Unknown paused types: %s", strings.Join(unknown, ", "))
		config.PausedTypes = defaults.PausedTypes
	}

	if config.MouseSettings.WheelSensitivity <= 0 {
		config.MouseSettings.WheelSensitivity = defaults.MouseSettings.WheelSensitivity
	}

	// Fill in missing bindings with defaults, then validate
	if config.Keybindings == nil {
		config.Keybindings = GetDefaultKeybindings()
	} else {
		for action, keys := range defaults.Keybindings {
			if _, exists := config.Keybindings[action]; !exists {
				config.Keybindings[action] = keys
			}
		}
		if err := validateKeybindings(config.Keybindings); err != nil {
			slog.Warn("invalid keybindings, using defaults", "err", err)
			config.Keybindings = GetDefaultKeybindings()
			result.warn("Keybinding errors: %v", err)
		}
	}
	if config.Mousebindings == nil {
		config.Mousebindings = GetDefaultMousebindings()
	} else {
		for action, buttons := range defaults.Mousebindings {
			if _, exists := config.Mousebindings[action]; !exists {
				config.Mousebindings[action] = buttons
			}
		}
	}
}

func clampInt(v, lo, hi, fallback int) int {
	if v < lo || v > hi {
		return fallback
	}
	return v
}

func parseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// zoomOptions builds the zoom engine options from the config
func (c Config) zoomOptions() zoom.Options {
	opts := zoom.DefaultOptions()
	opts.ContentScale, _ = geom.ParseContentScale(c.ContentScale)
	opts.Alignment, _ = geom.ParseAlignment(c.Alignment)
	opts.ScalesCalculator = zoom.DynamicScales{Multiple: c.ScaleMultiple}
	opts.ThreeStepScale = c.ThreeStepScale
	opts.RubberBandScale = c.RubberBandScale
	opts.LimitOffsetWithinBaseVisibleRect = c.LimitOffsetWithinBaseVisibleRect
	opts.Animation.Duration = time.Duration(c.AnimationDurationMs) * time.Millisecond
	if c.ReadMode {
		opts.ReadMode = zoom.DefaultReadMode()
	}
	return opts
}

// gestureOptions builds the gesture detector options from the config
func (c Config) gestureOptions() gesture.Options {
	opts := gesture.DefaultOptions()
	if types, err := gesture.ParseTypes(c.GestureTypes); err == nil {
		opts.Types = types
	}
	return opts
}

// subsamplingOptions builds the tile engine options from the config
func (c Config) subsamplingOptions() subsampling.Options {
	opts := subsampling.DefaultOptions()
	opts.Disabled = !c.Subsampling
	opts.DisallowReuseBitmap = c.DisallowReuseBitmap
	opts.MemoryCacheDisabled = c.TileCacheDisabled
	if paused, unknown := zoom.ParseContinuousTypes(c.PausedTypes); len(unknown) == 0 {
		opts.PausedTypes = paused
	}
	return opts
}

// getSortMethodName returns the human-readable name of a sort method
func getSortMethodName(sortMethod int) string {
	return GetSortStrategy(sortMethod).Name()
}

func saveConfig(config Config) {
	saveConfigToPath(config, getConfigPath())
}

func saveConfigToPath(config Config, configPath string) {
	// Don't save if size is too small
	if config.WindowWidth < minWidth || config.WindowHeight < minHeight {
		slog.Warn("not saving config with invalid window size",
			"width", config.WindowWidth, "height", config.WindowHeight)
		return
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		slog.Error("failed to marshal config", "err", err)
		return
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		slog.Error("failed to save config", "path", configPath, "err", err)
	}
}
