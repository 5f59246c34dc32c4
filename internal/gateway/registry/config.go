package registry

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultHealthPath = "/health"
)

// Defaults is the platform's five-service layout on localhost.
func Defaults() []Backend {
	return []Backend{
		{Name: "auth", URL: "http://localhost:8000", Timeout: DefaultTimeout, HealthPath: DefaultHealthPath},
		{Name: "roles", URL: "http://localhost:8001", Timeout: DefaultTimeout, HealthPath: DefaultHealthPath},
		{Name: "fields", URL: "http://localhost:8002", Timeout: DefaultTimeout, HealthPath: DefaultHealthPath},
		{Name: "reservations", URL: "http://localhost:8003", Timeout: DefaultTimeout, HealthPath: DefaultHealthPath},
		{Name: "dashboard", URL: "http://localhost:8004", Timeout: DefaultTimeout, HealthPath: DefaultHealthPath},
	}
}

type fileFormat struct {
	Defaults struct {
		Timeout    time.Duration `yaml:"timeout"`
		HealthPath string        `yaml:"health_path"`
	} `yaml:"defaults"`
	Backends []Backend `yaml:"backends"`
}

// ParseYAML reads a backends document:
//
//	defaults:
//	  timeout: 30s
//	backends:
//	  - name: auth
//	    url: http://auth:8000
//	    health_path: /health
//
// Entries without a timeout or health path take the document defaults, then
// the package defaults.
func ParseYAML(data []byte) ([]Backend, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("registry: parse backends: %w", err)
	}
	if len(doc.Backends) == 0 {
		return nil, fmt.Errorf("registry: backends document lists no backends")
	}

	timeout := doc.Defaults.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	healthPath := doc.Defaults.HealthPath
	if healthPath == "" {
		healthPath = DefaultHealthPath
	}

	out := make([]Backend, len(doc.Backends))
	for i, b := range doc.Backends {
		if b.Timeout == 0 {
			b.Timeout = timeout
		}
		if b.HealthPath == "" {
			b.HealthPath = healthPath
		}
		out[i] = b
	}
	return out, nil
}

// LoadFile reads a YAML backends file.
func LoadFile(path string) ([]Backend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read backends file: %w", err)
	}
	return ParseYAML(data)
}

// ApplyEnv overrides url, timeout and health path of known backends from
// <prefix>_BACKEND_<NAME>_{URL,TIMEOUT,HEALTH_PATH}. Dashes in names become
// underscores. lookup is usually os.LookupEnv.
func ApplyEnv(backends []Backend, prefix string, lookup func(string) (string, bool)) ([]Backend, error) {
	out := make([]Backend, len(backends))
	for i, b := range backends {
		key := prefix + "_BACKEND_" + strings.ToUpper(strings.ReplaceAll(b.Name, "-", "_"))

		if v, ok := lookup(key + "_URL"); ok && v != "" {
			b.URL = v
		}
		if v, ok := lookup(key + "_TIMEOUT"); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("registry: %s_TIMEOUT: %w", key, err)
			}
			b.Timeout = d
		}
		if v, ok := lookup(key + "_HEALTH_PATH"); ok && v != "" {
			b.HealthPath = v
		}
		out[i] = b
	}
	return out, nil
}
