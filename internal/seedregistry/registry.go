// Package seedregistry loads the load-time-only description of which
// domains a crawl may touch, what category each seed belongs to, and how
// many records are expected per domain/category. It is read once at
// startup and never mutated during a run.
package seedregistry

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/boltoncivic/crawlctl/internal/config"
	"github.com/boltoncivic/crawlctl/internal/model"
	"gopkg.in/yaml.v3"
)

// yamlConfig mirrors the on-disk seed registry file shape. It is unmarshaled
// then validated and flattened into Registry, the same DTO-then-domain-type
// split the config package uses for its own JSON file.
type yamlConfig struct {
	Domains []yamlDomain `yaml:"domains"`
}

type yamlDomain struct {
	Domain     string         `yaml:"domain"`
	Categories []yamlCategory `yaml:"categories"`
}

type yamlCategory struct {
	Category string   `yaml:"category"`
	Expected int      `yaml:"expected"`
	Seeds    []string `yaml:"seeds"`
}

// Registry is the validated, in-memory seed configuration for a single run.
type Registry struct {
	entries []model.SeedEntry
	domains []string
}

// Load reads and validates a seed registry YAML file at path. It fails with
// a *config.ConfigError if the file is missing/unreadable/unparseable, the
// domain list is empty, or any domain has no seed URLs at all.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &config.ConfigError{Message: fmt.Sprintf("failed to read seed registry %s", path), Cause: err}
	}

	var cfg yamlConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &config.ConfigError{Message: fmt.Sprintf("failed to parse seed registry %s", path), Cause: err}
	}

	return fromYAMLConfig(cfg)
}

// fromYAMLConfig validates a parsed yamlConfig and builds a Registry. It is
// split out from Load so Load itself stays a thin file-read-then-validate
// wrapper.
func fromYAMLConfig(cfg yamlConfig) (*Registry, error) {
	if len(cfg.Domains) == 0 {
		return nil, &config.ConfigError{Message: "seed registry allowlist is empty", Cause: config.ErrInvalidConfig}
	}

	reg := &Registry{}
	for _, d := range cfg.Domains {
		if d.Domain == "" {
			return nil, &config.ConfigError{Message: "seed registry entry missing domain", Cause: config.ErrInvalidConfig}
		}

		totalSeeds := 0
		for _, c := range d.Categories {
			totalSeeds += len(c.Seeds)
		}
		if totalSeeds == 0 {
			return nil, &config.ConfigError{
				Message: fmt.Sprintf("domain %s has no seed URLs", d.Domain),
				Cause:   config.ErrInvalidConfig,
			}
		}

		reg.domains = append(reg.domains, d.Domain)
		for _, c := range d.Categories {
			if len(c.Seeds) == 0 {
				continue
			}
			reg.entries = append(reg.entries, model.SeedEntry{
				Domain:        d.Domain,
				Category:      c.Category,
				SeedURLs:      append([]string(nil), c.Seeds...),
				ExpectedCount: map[string]int{c.Category: c.Expected},
			})
		}
	}

	return reg, nil
}

// Domains returns the allowlisted domains, in file order.
func (r *Registry) Domains() []string {
	out := make([]string, len(r.domains))
	copy(out, r.domains)
	return out
}

// Entries returns the flattened (domain, category) seed entries.
func (r *Registry) Entries() []model.SeedEntry {
	out := make([]model.SeedEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// GetSeeds returns every seed URL across every domain/category as a
// depth-0, priority-0 FrontierItem, ready for the Frontier to enqueue at
// startup.
func (r *Registry) GetSeeds() []model.FrontierItem {
	var items []model.FrontierItem
	now := time.Now()
	for _, entry := range r.entries {
		for _, seedURL := range entry.SeedURLs {
			items = append(items, model.FrontierItem{
				URL:        seedURL,
				Depth:      0,
				Category:   entry.Category,
				Priority:   model.PriorityDataFile,
				EnqueuedAt: now,
			})
		}
	}
	return items
}

// GetExpected returns the expected record count for a domain/category pair,
// or 0 if the pair is not declared in the registry.
func (r *Registry) GetExpected(domain, category string) int {
	for _, entry := range r.entries {
		if entry.Domain == domain && entry.Category == category {
			return entry.ExpectedCount[category]
		}
	}
	return 0
}

// HostQuotas sums each domain's expected record count across every category
// it declares, for use as the Frontier's hard per-host admission quota (spec
// §6's per-domain quota/expected-count table, spec §4.2 enqueue rule 3).
// Domain keys are lowercased to match the normalized hostnames the Frontier
// looks them up by.
func (r *Registry) HostQuotas() map[string]int {
	quotas := make(map[string]int, len(r.domains))
	for _, e := range r.entries {
		quotas[strings.ToLower(e.Domain)] += e.ExpectedCount[e.Category]
	}
	return quotas
}

// IsAllowedDomain reports whether domain appears in the registry's allowlist.
func (r *Registry) IsAllowedDomain(domain string) bool {
	for _, d := range r.domains {
		if d == domain {
			return true
		}
	}
	return false
}
