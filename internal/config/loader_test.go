package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testValue = "test_value"

// clearLexsegEnvVars clears all LEXSEG_ environment variables.
func clearLexsegEnvVars() {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "LEXSEG_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) > 0 {
				_ = os.Unsetenv(parts[0])
			}
		}
	}
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.v == nil {
		t.Error("Loader viper instance is nil")
	}
}

func TestLoadWithNoConfigFile(t *testing.T) {
	clearLexsegEnvVars()

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Errorf("Load() unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.LogLevel)
	}
	if cfg.Thresholds.HeaderLines != 12 {
		t.Errorf("expected default header_lines 12, got %d", cfg.Thresholds.HeaderLines)
	}
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "lexseg.yaml")

	yamlContent := `
log_level: debug
verbose: true
thresholds:
  header_lines: 10
  ocr_dpi_standard: 250
capability:
  ocr_language: eng
`

	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadWithFile(configFile)
	if err != nil {
		t.Errorf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("expected verbose to be true")
	}
	if cfg.Thresholds.HeaderLines != 10 {
		t.Errorf("expected header_lines 10, got %d", cfg.Thresholds.HeaderLines)
	}
	if cfg.Thresholds.OCRDPIStandard != 250 {
		t.Errorf("expected ocr_dpi_standard 250, got %d", cfg.Thresholds.OCRDPIStandard)
	}
	if cfg.Capability.OCRLanguage != "eng" {
		t.Errorf("expected ocr_language 'eng', got %s", cfg.Capability.OCRLanguage)
	}
}

func TestLoadWithInvalidYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "lexseg.yaml")

	invalidYAML := `
log_level: debug
  invalid indentation
    more bad indentation
`

	if err := os.WriteFile(configFile, []byte(invalidYAML), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader()
	_, err := loader.LoadWithFile(configFile)
	if err == nil {
		t.Error("LoadWithFile() expected error for invalid YAML, got nil")
	}
}

func TestLoadWithNonExistentFile(t *testing.T) {
	loader := NewLoader()
	_, err := loader.LoadWithFile("/nonexistent/path/to/config.yaml")
	if err == nil {
		t.Error("LoadWithFile() expected error for non-existent file, got nil")
	}
}

func TestLoadWithValidationFailure(t *testing.T) {
	clearLexsegEnvVars()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "lexseg.yaml")

	yamlContent := `
log_level: invalid_level
`

	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader()
	_, err := loader.LoadWithFile(configFile)
	if err == nil {
		t.Error("LoadWithFile() expected validation error, got nil")
	}
}

func TestLoadWithoutValidation(t *testing.T) {
	clearLexsegEnvVars()
	defer clearLexsegEnvVars()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "lexseg.yaml")

	yamlContent := `
log_level: invalid_level
thresholds:
  ocr_dpi_standard: -5
`

	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		t.Errorf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadWithFileWithoutValidation() returned nil config")
	}

	if cfg.LogLevel != "invalid_level" {
		t.Errorf("expected log level 'invalid_level', got %s", cfg.LogLevel)
	}
	if cfg.Thresholds.OCRDPIStandard != -5 {
		t.Errorf("expected ocr_dpi_standard -5, got %d", cfg.Thresholds.OCRDPIStandard)
	}
}

func TestEnvironmentVariableOverride(t *testing.T) {
	clearLexsegEnvVars()
	defer clearLexsegEnvVars()

	envVars := map[string]string{
		"LEXSEG_LOG_LEVEL": "debug",
		"LEXSEG_VERBOSE":   "true",
	}

	for key, value := range envVars {
		if err := os.Setenv(key, value); err != nil {
			t.Fatalf("failed to set env var %s: %v", key, err)
		}
	}

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Errorf("Load() unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug' from env, got %s", cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("expected verbose true from env")
	}
}

func TestEnvironmentVariableWithUnderscores(t *testing.T) {
	clearLexsegEnvVars()
	defer clearLexsegEnvVars()

	envVars := map[string]string{
		"LEXSEG_THRESHOLDS_HEADER_LINES":    "20",
		"LEXSEG_CAPABILITY_OCR_LANGUAGE":    "eng",
	}

	for key, value := range envVars {
		if err := os.Setenv(key, value); err != nil {
			t.Fatalf("failed to set env var %s: %v", key, err)
		}
	}

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Errorf("Load() unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.Thresholds.HeaderLines != 20 {
		t.Errorf("expected header_lines 20 from env, got %d", cfg.Thresholds.HeaderLines)
	}
	if cfg.Capability.OCRLanguage != "eng" {
		t.Errorf("expected ocr_language 'eng' from env, got %s", cfg.Capability.OCRLanguage)
	}
}

func TestGetSetConfigValues(t *testing.T) {
	loader := NewLoader()

	loader.Set("test_key", testValue)

	value := loader.GetString("test_key")
	if value != testValue {
		t.Errorf("expected '%s', got %s", testValue, value)
	}

	genericValue := loader.Get("test_key")
	if genericValue != testValue {
		t.Errorf("expected '%s', got %v", testValue, genericValue)
	}
}

func TestGetConfigFileUsed(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "lexseg.yaml")

	yamlContent := `log_level: debug`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader()
	_, err := loader.LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() error: %v", err)
	}

	usedFile := loader.GetConfigFileUsed()
	if usedFile != configFile {
		t.Errorf("expected config file %s, got %s", configFile, usedFile)
	}
}

func TestGetViper(t *testing.T) {
	loader := NewLoader()
	v := loader.GetViper()

	if v == nil {
		t.Error("GetViper() returned nil")
	}
	if v != loader.v {
		t.Error("GetViper() returned different instance")
	}
}

func TestGetResolvedConfig(t *testing.T) {
	loader := NewLoader()
	loader.Set("test_key", testValue)

	resolved := loader.GetResolvedConfig()
	if resolved == nil {
		t.Error("GetResolvedConfig() returned nil")
	}

	if value, ok := resolved["test_key"]; !ok || value != testValue {
		t.Errorf("expected test_key='%s' in resolved config, got %v", testValue, value)
	}
}

func TestWriteConfigToFile(t *testing.T) {
	tmpDir := t.TempDir()
	outputFile := filepath.Join(tmpDir, "output.yaml")

	loader := NewLoader()
	loader.Set("log_level", "debug")
	loader.Set("verbose", true)

	err := loader.WriteConfigToFile(outputFile)
	if err != nil {
		t.Errorf("WriteConfigToFile() error: %v", err)
	}

	if _, err := os.Stat(outputFile); os.IsNotExist(err) {
		t.Error("config file was not written")
	}
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	outputFile := filepath.Join(tmpDir, "default.yaml")

	err := GenerateDefaultConfigFile(outputFile)
	if err != nil {
		t.Errorf("GenerateDefaultConfigFile() error: %v", err)
	}

	if _, err := os.Stat(outputFile); os.IsNotExist(err) {
		t.Error("default config file was not generated")
	}

	loader := NewLoader()
	cfg, err := loader.LoadWithFile(outputFile)
	if err != nil {
		t.Errorf("failed to load generated config: %v", err)
	}
	if cfg == nil {
		t.Error("loaded config is nil")
	}
}

func TestGenerateDefaultConfigFileWithEmptyFilename(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}

	err := GenerateDefaultConfigFile("")
	if err != nil {
		t.Errorf("GenerateDefaultConfigFile(\"\") error: %v", err)
	}

	expectedFile := filepath.Join(tmpDir, "lexseg.yaml")
	if _, err := os.Stat(expectedFile); os.IsNotExist(err) {
		t.Error("default lexseg.yaml was not generated")
	}
}

func TestGetConfigSearchPaths(t *testing.T) {
	paths := GetConfigSearchPaths()

	if len(paths) == 0 {
		t.Error("GetConfigSearchPaths() returned empty slice")
	}

	hasCurrentDir := false
	for _, path := range paths {
		if path == "." {
			hasCurrentDir = true
			break
		}
	}
	if !hasCurrentDir {
		t.Error("search paths don't include current directory")
	}
}

func TestPrintConfigInfo(t *testing.T) {
	loader := NewLoader()
	loader.PrintConfigInfo()
}

func TestLoadWithEmptyConfigFile(t *testing.T) {
	clearLexsegEnvVars()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "lexseg.yaml")

	if err := os.WriteFile(configFile, []byte(""), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadWithFile(configFile)
	if err != nil {
		t.Errorf("LoadWithFile() unexpected error: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.LogLevel)
	}
}

func TestMultipleConfigSourcesPrecedence(t *testing.T) {
	clearLexsegEnvVars()
	defer clearLexsegEnvVars()

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "lexseg.yaml")

	yamlContent := `log_level: warn`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if err := os.Setenv("LEXSEG_LOG_LEVEL", "debug"); err != nil {
		t.Fatalf("failed to set env var: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadWithFile(configFile)
	if err != nil {
		t.Errorf("LoadWithFile() error: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug' from env (should override file), got %s", cfg.LogLevel)
	}
}

func TestLoadWithEmptyFilenameUsesDefaultLoad(t *testing.T) {
	clearLexsegEnvVars()

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadWithFile("")
	if err != nil {
		t.Errorf("LoadWithFile(\"\") unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadWithFile(\"\") returned nil config")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level, got %s", cfg.LogLevel)
	}
}

func TestLoadWithoutValidationUsesDefaults(t *testing.T) {
	clearLexsegEnvVars()

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadWithoutValidation()
	if err != nil {
		t.Errorf("LoadWithoutValidation() unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadWithoutValidation() returned nil config")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level, got %s", cfg.LogLevel)
	}
}

func TestLoadWithFileWithoutValidationEmptyString(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadWithFileWithoutValidation("")
	if err != nil {
		t.Errorf("LoadWithFileWithoutValidation(\"\") unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadWithFileWithoutValidation(\"\") returned nil config")
	}
}

func TestBindFlag(t *testing.T) {
	loader := NewLoader()
	err := loader.BindFlag("test.key", "test-flag")
	if err != nil {
		t.Errorf("BindFlag() unexpected error: %v", err)
	}
}

func TestBindFlagSet(t *testing.T) {
	loader := NewLoader()
	err := loader.BindFlagSet(nil)
	if err != nil {
		t.Errorf("BindFlagSet() unexpected error: %v", err)
	}
}
