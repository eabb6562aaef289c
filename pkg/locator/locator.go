// Package locator resolves the base URLs of peer content services so
// handlers can build cross-service links without hardcoding hosts.
package locator

import (
	"fmt"
	"sort"
	"strings"
)

// Endpoint describes where one peer service listens.
type Endpoint struct {
	Host string
	Port int
}

// Locator maps service names to their network endpoints.
type Locator struct {
	endpoints map[string]Endpoint
}

// New creates a locator over a static endpoint table, usually loaded from
// configuration.
func New(endpoints map[string]Endpoint) *Locator {
	table := make(map[string]Endpoint, len(endpoints))
	for name, ep := range endpoints {
		table[strings.ToLower(strings.TrimSpace(name))] = ep
	}
	return &Locator{endpoints: table}
}

// Services returns the known service names, sorted.
func (l *Locator) Services() []string {
	names := make([]string, 0, len(l.endpoints))
	for name := range l.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BaseURL returns the root URL of a service.
func (l *Locator) BaseURL(service string) (string, error) {
	ep, ok := l.endpoints[strings.ToLower(strings.TrimSpace(service))]
	if !ok {
		return "", fmt.Errorf("unknown service %q", service)
	}
	return fmt.Sprintf("http://%s:%d", ep.Host, ep.Port), nil
}

// ServiceURL returns the versioned collection URL of a service, e.g.
// http://host:port/api/v1/events.
func (l *Locator) ServiceURL(version, service string) (string, error) {
	base, err := l.BaseURL(service)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/%s/%s", base, version, service), nil
}

// URL joins a resource path onto the versioned service URL.
func (l *Locator) URL(version, service, path string) (string, error) {
	serviceURL, err := l.ServiceURL(version, service)
	if err != nil {
		return "", err
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return serviceURL, nil
	}
	return serviceURL + "/" + path, nil
}
