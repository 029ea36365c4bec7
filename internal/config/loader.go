package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "lexseg"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "LEXSEG"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	// Use the global viper instance to ensure flag bindings work
	return &Loader{v: viper.GetViper()}
}

// Load loads configuration from files, environment variables, and sets defaults.
// It returns the loaded configuration and any error encountered.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// LoadWithoutValidation loads configuration from files, environment variables, and sets defaults.
// It returns the loaded configuration without validation.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// LoadWithFileWithoutValidation loads configuration from a specific file path without validation.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	if configFile == "" {
		return l.LoadWithoutValidation()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// BindFlag does not bind anything: it ignores its arguments and always
// returns nil. Flag bindings are made with viper.BindPFlag directly.
func (l *Loader) BindFlag(key, flagName string) error {
	return nil
}

// BindFlagSet does not bind anything: it ignores flagSet and always
// returns nil.
func (l *Loader) BindFlagSet(flagSet interface{}) error {
	return nil
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/lexseg")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "lexseg"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "lexseg"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	t := defaults.Thresholds
	l.v.SetDefault("thresholds.readability_tier_thresholds", t.ReadabilityTierThresholds)
	l.v.SetDefault("thresholds.degraded_ratio_propagate", t.DegradedRatioPropagate)
	l.v.SetDefault("thresholds.repetitive_threshold", t.RepetitiveThreshold)
	l.v.SetDefault("thresholds.header_lines", t.HeaderLines)
	l.v.SetDefault("thresholds.footer_lines", t.FooterLines)
	l.v.SetDefault("thresholds.ocr_dpi_standard", t.OCRDPIStandard)
	l.v.SetDefault("thresholds.ocr_dpi_enhanced", t.OCRDPIEnhanced)
	l.v.SetDefault("thresholds.extraction_fallback_confidence", t.ExtractionFallbackConfidence)
	l.v.SetDefault("thresholds.rotation_garbage_gate", t.RotationGarbageGate)
	l.v.SetDefault("thresholds.rotation_early_exit", t.RotationEarlyExit)
	l.v.SetDefault("thresholds.garbage_penalty_threshold", t.GarbagePenaltyThreshold)
	l.v.SetDefault("thresholds.garbage_penalty_confidence", t.GarbagePenaltyConfidence)
	l.v.SetDefault("thresholds.degraded_readability_below", t.DegradedReadabilityBelow)
	l.v.SetDefault("thresholds.degraded_garbage_at_or_above", t.DegradedGarbageAtOrAbove)
	l.v.SetDefault("thresholds.degraded_min_char_count", t.DegradedMinCharCount)
	l.v.SetDefault("thresholds.empty_page_min_chars", t.EmptyPageMinChars)
	l.v.SetDefault("thresholds.segment_boundary_weight", t.SegmentBoundaryWeight)
	l.v.SetDefault("thresholds.profiler_fallback_min_confidence", t.ProfilerFallbackMinConfidence)
	l.v.SetDefault("thresholds.segment_l1_override_min_confidence", t.SegmentL1OverrideMinConfidence)
	l.v.SetDefault("thresholds.l2_fallback_confidence_floor", t.L2FallbackConfidenceFloor)
	l.v.SetDefault("thresholds.qc_extraction_confidence_flag", t.QCExtractionConfidenceFlag)
	l.v.SetDefault("thresholds.qc_segmentation_confidence_flag", t.QCSegmentationConfidenceFlag)
	l.v.SetDefault("thresholds.qc_min_body_chars", t.QCMinBodyChars)
	l.v.SetDefault("thresholds.text_extract_timeout_sec", t.TextExtractTimeoutSec)
	l.v.SetDefault("thresholds.rasterize_timeout_sec", t.RasterizeTimeoutSec)
	l.v.SetDefault("thresholds.ocr_timeout_sec", t.OCRTimeoutSec)
	l.v.SetDefault("thresholds.rotate_timeout_sec", t.RotateTimeoutSec)

	l.v.SetDefault("capability.ocr_language", defaults.Capability.OCRLanguage)
	l.v.SetDefault("capability.ocr_page_seg_mode", defaults.Capability.OCRPageSegMode)
	l.v.SetDefault("capability.pdftotext_path", defaults.Capability.PdftotextPath)
	l.v.SetDefault("capability.pdftoppm_path", defaults.Capability.PdftoppmPath)
	l.v.SetDefault("capability.tesseract_path", defaults.Capability.TesseractPath)
	l.v.SetDefault("capability.sips_path", defaults.Capability.SipsPath)
	l.v.SetDefault("capability.convert_path", defaults.Capability.ConvertPath)

	l.v.SetDefault("output.base_dir", defaults.Output.BaseDir)

	l.v.SetDefault("batch.continue_on_error", defaults.Batch.ContinueOnError)
	l.v.SetDefault("batch.dedup_enabled", defaults.Batch.DedupEnabled)
	l.v.SetDefault("batch.recursive_scan", defaults.Batch.RecursiveScan)

	l.v.SetDefault("server.metrics_addr", defaults.Server.MetricsAddr)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]interface{} {
	return l.v.AllSettings()
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile generates a default configuration file.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoader()
	loader.setDefaults()

	if filename == "" {
		filename = "lexseg.yaml"
	}

	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are
// searched, in the order addConfigPaths registers them.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	paths = append(paths, "/etc/lexseg")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "lexseg"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "lexseg"))
	}

	return paths
}

// PrintConfigInfo prints information about configuration loading for debugging.
func (l *Loader) PrintConfigInfo() {
	fmt.Printf("Configuration file used: %s\n", l.GetConfigFileUsed())
	fmt.Printf("Configuration search paths: %v\n", GetConfigSearchPaths())
	fmt.Printf("Environment prefix: %s\n", EnvPrefix)
}
