// Package monitor matches the current browsing context against the watched
// sites. It only observes: a match is reported, never acted upon.
package monitor

import (
	"slices"
	"strings"
	"sync"

	"wellbeing/internal/core/model"
)

// Advisor holds the watched sites.
type Advisor struct {
	mu    sync.RWMutex
	sites []string
}

// NewAdvisor creates an advisor for the given sites.
func NewAdvisor(sites []string) *Advisor {
	advisor := &Advisor{}
	advisor.SetSites(sites)
	return advisor
}

// SetSites replaces the watched sites.
func (advisor *Advisor) SetSites(sites []string) {
	normalized := make([]string, 0, len(sites))
	for _, site := range sites {
		if host := model.NormalizeHost(site); host != "" && !slices.Contains(normalized, host) {
			normalized = append(normalized, host)
		}
	}
	advisor.mu.Lock()
	advisor.sites = normalized
	advisor.mu.Unlock()
}

// Sites returns the watched sites.
func (advisor *Advisor) Sites() []string {
	advisor.mu.RLock()
	defer advisor.mu.RUnlock()
	return slices.Clone(advisor.sites)
}

// CheckCurrentContext reports whether hostname belongs to a watched site.
func (advisor *Advisor) CheckCurrentContext(hostname string) bool {
	_, ok := advisor.Match(hostname)
	return ok
}

// Match returns the watched site hostname belongs to. A site matches itself
// and its subdomains, so "x.com" matches "mobile.x.com" but not "box.com".
func (advisor *Advisor) Match(hostname string) (string, bool) {
	host := model.NormalizeHost(hostname)
	if host == "" {
		return "", false
	}
	advisor.mu.RLock()
	defer advisor.mu.RUnlock()
	for _, site := range advisor.sites {
		if host == site || strings.HasSuffix(host, "."+site) {
			return site, true
		}
	}
	return "", false
}
