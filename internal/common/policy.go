package common

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PolicyProfile is the investment policy statement loaded from a YAML
// profile file. It constrains candidate selection and screens analyses
// for eligibility.
type PolicyProfile struct {
	RiskTolerance    string   `yaml:"risk_tolerance"`
	TimeHorizonYears int      `yaml:"time_horizon_years"`
	Objectives       []string `yaml:"objectives"`
	TargetReturnPct  float64  `yaml:"target_return_pct"`
	MaxVolatilityPct float64  `yaml:"max_volatility_pct"`

	AllowedSectors    []string `yaml:"allowed_sectors"`
	ProhibitedSectors []string `yaml:"prohibited_sectors"`

	MinPositionPct float64 `yaml:"min_position_pct"`
	MaxPositionPct float64 `yaml:"max_position_pct"`
	MaxSectorPct   float64 `yaml:"max_sector_pct"`

	Universe PolicyUniverse `yaml:"universe"`

	BetaMin float64 `yaml:"beta_min"`
	BetaMax float64 `yaml:"beta_max"`
}

// PolicyUniverse scopes the investable universe.
type PolicyUniverse struct {
	Benchmark    string  `yaml:"benchmark"`
	MinPrice     float64 `yaml:"min_price"`
	MinMarketCap float64 `yaml:"min_market_cap"`
}

// NewDefaultPolicyProfile returns the built-in moderate policy used when
// no profile file is configured.
func NewDefaultPolicyProfile() *PolicyProfile {
	return &PolicyProfile{
		RiskTolerance:    "moderate",
		TimeHorizonYears: 10,
		Objectives:       []string{"capital growth", "diversification"},
		TargetReturnPct:  8.0,
		MaxVolatilityPct: 20.0,
		MinPositionPct:   5.0,
		MaxPositionPct:   30.0,
		MaxSectorPct:     40.0,
		Universe: PolicyUniverse{
			Benchmark:    "GSPC",
			MinPrice:     5.0,
			MinMarketCap: 1e9,
		},
		BetaMin: 0.0,
		BetaMax: 2.0,
	}
}

// LoadPolicyProfile reads a YAML policy profile, merging over the defaults.
// An empty path returns the defaults.
func LoadPolicyProfile(path string) (*PolicyProfile, error) {
	profile := NewDefaultPolicyProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy profile %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse policy profile %s: %w", path, err)
	}

	if profile.BetaMax > 0 && profile.BetaMin > profile.BetaMax {
		return nil, fmt.Errorf("invalid policy profile %s: beta_min %.2f exceeds beta_max %.2f",
			path, profile.BetaMin, profile.BetaMax)
	}

	return profile, nil
}

// ProhibitsSector reports whether the sector is on the prohibited list.
// Matching is case-insensitive.
func (p *PolicyProfile) ProhibitsSector(sector string) bool {
	for _, prohibited := range p.ProhibitedSectors {
		if strings.EqualFold(prohibited, sector) {
			return true
		}
	}
	return false
}
