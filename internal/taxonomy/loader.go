package taxonomy

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry loads filer profiles from a directory of YAML files and
// serves lookups by ticker. Lookups fall back to a built-in generic
// profile when no filer-specific one is loaded, so a parse always has a
// taxonomy to work with.
type Registry struct {
	dir      string
	logger   *slog.Logger
	fallback *Profile

	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewRegistry creates a registry backed by dir. An empty dir means only
// the built-in fallback profile is available.
func NewRegistry(dir string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		dir:      dir,
		logger:   logger,
		fallback: DefaultProfile(),
		profiles: make(map[string]*Profile),
	}
}

// Load reads every .yaml/.yml profile under the registry directory and
// swaps the loaded set in one step. A bad profile file is skipped with a
// warning rather than failing the whole load; a missing directory leaves
// only the built-in fallback.
func (r *Registry) Load() error {
	if r.dir == "" {
		return nil
	}

	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("taxonomy directory missing, using built-in profile only", "dir", r.dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read taxonomy dir: %w", err)
	}

	loaded := make(map[string]*Profile)
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(ent.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(r.dir, ent.Name())
		p, err := LoadProfile(path)
		if err != nil {
			r.logger.Warn("skipping taxonomy profile", "path", path, "error", err)
			continue
		}
		key := Normalize(p.Filer)
		if prev, ok := loaded[key]; ok {
			r.logger.Warn("duplicate taxonomy profile, keeping later file",
				"filer", p.Filer, "replaced", prev.Name, "file", ent.Name())
		}
		loaded[key] = p
		r.logger.Info("loaded taxonomy profile",
			"filer", p.Filer, "sections", len(p.Sections), "regions", len(p.Regions))
	}

	r.mu.Lock()
	r.profiles = loaded
	r.mu.Unlock()
	return nil
}

// LoadProfile reads and finalizes a single YAML profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(p.Filer) == "" {
		return nil, fmt.Errorf("%s: filer is required", filepath.Base(path))
	}
	if len(p.Sections) == 0 {
		return nil, fmt.Errorf("%s: at least one section is required", filepath.Base(path))
	}
	if err := p.finalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Lookup returns the profile for a ticker, falling back to the built-in
// generic profile. Never returns nil.
func (r *Registry) Lookup(ticker string) *Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.profiles[Normalize(ticker)]; ok {
		return p
	}
	return r.fallback
}

// Len returns the number of loaded filer profiles, excluding the
// built-in fallback.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

// Profiles returns the loaded profiles sorted by filer, with the
// built-in fallback last.
func (r *Registry) Profiles() []*Profile {
	r.mu.RLock()
	out := make([]*Profile, 0, len(r.profiles)+1)
	for _, p := range r.profiles {
		out = append(out, p)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Profile) int {
		return strings.Compare(a.Filer, b.Filer)
	})
	return append(out, r.fallback)
}

// DefaultProfile returns the built-in generic annual/quarterly report
// taxonomy: the disclosure notes most filers carry, plus the standard
// 10-K item regions.
func DefaultProfile() *Profile {
	return defaultProfile
}

var defaultProfile = mustProfile(&Profile{
	Filer: "default",
	Name:  "Generic annual/quarterly report",
	Sections: []Entry{
		{Canonical: "Summary of Significant Accounting Policies", Aliases: []string{
			"Significant Accounting Policies",
			"Basis of Presentation and Summary of Significant Accounting Policies",
			"Basis of Presentation",
		}},
		{Canonical: "Revenue", Aliases: []string{
			"Revenue Recognition",
			"Net Revenues",
			"Revenue from Contracts with Customers",
		}},
		{Canonical: "Segment Information", Aliases: []string{
			"Segment Information and Geographic Data",
			"Segments",
		}},
		{Canonical: "Income Taxes", Aliases: []string{
			"Provision for Income Taxes",
		}},
		{Canonical: "Leases"},
		{Canonical: "Commitments and Contingencies", Aliases: []string{
			"Commitments & Contingencies",
		}},
		{Canonical: "Fair Value Measurements", Aliases: []string{
			"Fair Value of Financial Instruments",
			"Fair Value Measurement",
		}},
		{Canonical: "Goodwill and Intangible Assets", Aliases: []string{
			"Goodwill",
			"Intangible Assets, Net",
			"Goodwill and Other Intangible Assets",
		}},
		{Canonical: "Property and Equipment", Aliases: []string{
			"Property and Equipment, Net",
			"Property, Plant and Equipment",
		}},
		{Canonical: "Accrued Expenses and Other Current Liabilities", Aliases: []string{
			"Accrued Liabilities",
			"Accrued Expenses",
		}},
		{Canonical: "Stock-Based Compensation", Aliases: []string{
			"Share-Based Compensation",
			"Equity Incentive Plans",
			"Stockholders' Equity and Stock-Based Compensation",
		}},
		{Canonical: "Earnings Per Share", Aliases: []string{
			"Net Income Per Share",
			"Net Loss Per Share",
			"Loss Per Share",
		}},
		{Canonical: "Debt", Aliases: []string{
			"Borrowings",
			"Term Debt",
			"Convertible Notes",
			"Long-Term Debt",
		}},
		{Canonical: "Warrants", Aliases: []string{
			"Warrant Liabilities",
		}},
		{Canonical: "Investments", Aliases: []string{
			"Marketable Securities",
			"Financial Instruments",
		}},
		{Canonical: "Inventories", Aliases: []string{
			"Inventory",
		}},
		{Canonical: "Business Combinations", Aliases: []string{
			"Acquisitions",
		}},
		{Canonical: "Restructuring", Aliases: []string{
			"Restructuring Charges",
		}},
		{Canonical: "Related Party Transactions", Aliases: []string{
			"Related Parties",
		}},
		{Canonical: "Subsequent Events"},
	},
	Regions: []Region{
		{Name: "Item 1", Markers: []string{`^item\s*1\s*[.\-:]`}},
		{Name: "Item 1A", Markers: []string{`^item\s*1a\s*[.\-:]`, `^risk factors$`}},
		{Name: "Item 7", Markers: []string{`^item\s*7\s*[.\-:]`, `management.s discussion and analysis`}},
		{Name: "Item 7A", Markers: []string{`^item\s*7a\s*[.\-:]`, `quantitative and qualitative disclosures`}},
		{Name: "Item 8", Markers: []string{`^item\s*8\s*[.\-:]`, `financial statements and supplementary data`}},
		{Name: "Notes", Markers: []string{`^notes to .*financial statements`}},
	},
})

func mustProfile(p *Profile) *Profile {
	if err := p.finalize(); err != nil {
		panic(err)
	}
	return p
}
