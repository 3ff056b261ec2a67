// Package config loads and validates the gopher-doctor configuration file.
package config

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/tonyjoanes/gopher-doctor/api/v1alpha1"
)

const (
	// DefaultPath is read when no --config flag is given and the file exists.
	DefaultPath = ".gopherdoctor.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "GOPHERDOCTOR_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// envKeys maps environment variable suffixes to config keys.
var envKeys = map[string]string{
	"ENABLED":                 "enabled",
	"TYPEWRITER_SPEED":        "typeWriterSpeed",
	"SHOW_ORIGINAL_ERROR":     "showOriginalError",
	"REQUEST_TIMEOUT":         "requestTimeout",
	"MODEL_PROVIDER":          "model.provider",
	"MODEL_API_KEY":           "model.apiKey",
	"MODEL_NAME":              "model.model",
	"MODEL_BASE_URL":          "model.baseURL",
	"MODEL_TEMPERATURE":       "model.temperature",
	"REPORT_GITHUB_REPO":      "report.github.repo",
	"REPORT_GITHUB_NUMBER":    "report.github.number",
	"REPORT_GITHUB_TOKEN":     "report.github.token",
	"REPORT_GITHUB_BASE_URL":  "report.github.baseURL",
	"REPORT_WEBHOOK_URL":      "report.webhook.url",
	"METRICS_TEXTFILE_PATH":   "metrics.textfilePath",
	"METRICS_PUSHGATEWAY_URL": "metrics.pushgatewayURL",
	"METRICS_JOB":             "metrics.job",
}

// Load reads the YAML file at path, then overrides it with environment
// variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (GOPHERDOCTOR_MODEL_API_KEY, GOPHERDOCTOR_ENABLED, ...)
//  2. YAML config file
//  3. Defaults from (*v1alpha1.DoctorConfig).Default
//
// An empty path means DefaultPath, which may be absent. An explicit path must
// exist. Load does not validate; see Validate.
func Load(path string) (*v1alpha1.DoctorConfig, error) {
	var content []byte
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		b, err := readFile(path)
		if err != nil {
			return nil, err
		}
		content = b
	}
	return Parse(content)
}

// Parse decodes YAML content (possibly empty) with environment overrides
// applied on top.
func Parse(content []byte) (*v1alpha1.DoctorConfig, error) {
	k := koanf.New(".")

	if len(content) > 0 {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// GOPHERDOCTOR_MODEL_API_KEY -> model.apiKey. Unknown variables are ignored.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[strings.TrimPrefix(s, EnvPrefix)]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg v1alpha1.DoctorConfig
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				durationHook,
				mapstructure.StringToTimeDurationHookFunc(),
			),
			Result:           &cfg,
			TagName:          "json",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// durationHook decodes "90s" style strings, and bare numbers as seconds,
// into metav1.Duration.
func durationHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(metav1.Duration{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return metav1.Duration{Duration: d}, nil
	case int:
		return metav1.Duration{Duration: time.Duration(v) * time.Second}, nil
	case int64:
		return metav1.Duration{Duration: time.Duration(v) * time.Second}, nil
	case uint64:
		return metav1.Duration{Duration: time.Duration(v) * time.Second}, nil
	case float64:
		return metav1.Duration{Duration: time.Duration(v * float64(time.Second))}, nil
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return content, nil
}
