// Package registry holds the gateway's immutable table of backends.
package registry

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"
)

var ErrNotFound = errors.New("registry: backend not found")

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Backend is the configured form of a target.
type Backend struct {
	Name       string        `yaml:"name"`
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	HealthPath string        `yaml:"health_path"`
}

// BackendTarget is a validated backend with its own HTTP client.
type BackendTarget struct {
	Name       string
	BaseURL    *url.URL
	Timeout    time.Duration
	HealthPath string

	// Client has a private transport so that one backend's stalled
	// connections never consume another's pool.
	Client *http.Client
}

// URL joins the target's base URL with rest (already escaped) and rawQuery.
func (t *BackendTarget) URL(rest, rawQuery string) string {
	u := *t.BaseURL
	u.RawPath = ""
	u.Path = strings.TrimSuffix(u.Path, "/") + "/"
	s := u.String() + rest
	if rawQuery != "" {
		s += "?" + rawQuery
	}
	return s
}

// HealthURL is the probe address.
func (t *BackendTarget) HealthURL() string {
	return strings.TrimSuffix(t.BaseURL.String(), "/") + t.HealthPath
}

// Registry is never mutated after New and needs no locking.
type Registry struct {
	byName map[string]*BackendTarget
	sorted []*BackendTarget
}

// New validates backends and builds a client per target.
func New(backends []Backend) (*Registry, error) {
	if len(backends) == 0 {
		return nil, errors.New("registry: no backends configured")
	}

	r := &Registry{byName: make(map[string]*BackendTarget, len(backends))}
	for _, b := range backends {
		t, err := newTarget(b)
		if err != nil {
			return nil, err
		}
		if _, dup := r.byName[t.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate backend %q", t.Name)
		}
		r.byName[t.Name] = t
		r.sorted = append(r.sorted, t)
	}

	slices.SortFunc(r.sorted, func(a, b *BackendTarget) int {
		return strings.Compare(a.Name, b.Name)
	})
	return r, nil
}

func newTarget(b Backend) (*BackendTarget, error) {
	if !nameRe.MatchString(b.Name) {
		return nil, fmt.Errorf("registry: invalid backend name %q", b.Name)
	}

	u, err := url.Parse(b.URL)
	if err != nil {
		return nil, fmt.Errorf("registry: backend %s: %w", b.Name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("registry: backend %s: url %q must be absolute http(s)", b.Name, b.URL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("registry: backend %s: url must not carry a query or fragment", b.Name)
	}

	if b.Timeout <= 0 {
		return nil, fmt.Errorf("registry: backend %s: timeout must be positive", b.Name)
	}

	healthPath := b.HealthPath
	if healthPath == "" {
		healthPath = DefaultHealthPath
	}
	if !strings.HasPrefix(healthPath, "/") {
		return nil, fmt.Errorf("registry: backend %s: health path %q must start with /", b.Name, healthPath)
	}

	return &BackendTarget{
		Name:       b.Name,
		BaseURL:    u,
		Timeout:    b.Timeout,
		HealthPath: healthPath,
		Client:     newClient(),
	}, nil
}

func newClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Transport: transport,
		// Redirects are relayed to the caller, not followed.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Lookup returns the named target or ErrNotFound.
func (r *Registry) Lookup(name string) (*BackendTarget, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return t, nil
}

// All returns the targets sorted by name. Callers must not modify the slice.
func (r *Registry) All() []*BackendTarget {
	return r.sorted
}

// Names lists backend names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sorted))
	for i, t := range r.sorted {
		names[i] = t.Name
	}
	return names
}

// CloseIdleConnections releases pooled connections of every target.
func (r *Registry) CloseIdleConnections() {
	for _, t := range r.sorted {
		t.Client.CloseIdleConnections()
	}
}
