package knowledge

import "strings"

// ============================================================================
// Entity Types
// ============================================================================

// Fund is a mutual fund row
type Fund struct {
	ID            string `json:"fund_id"`
	Key           string `json:"internal_key,omitempty"` // legacy dictionary key, display only
	Name          string `json:"name"`
	AMCID         string `json:"amc_id"`
	Risk          string `json:"risk"`
	PrimarySector string `json:"primary_sector"`
	Description   string `json:"description,omitempty"`
}

// AMC is an asset management company row
type AMC struct {
	ID          string `json:"amc_id"`
	Name        string `json:"name"`
	Established int    `json:"established,omitempty"`
	AUMGroup    string `json:"aum_group,omitempty"`
}

// Sector is an industry sector row
type Sector struct {
	ID               string `json:"sector_id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	SensitivityNotes string `json:"sensitivity_notes,omitempty"`
}

// Factor is a macro factor row
type Factor struct {
	ID              string `json:"factor_id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	ImpactDirection string `json:"impact_direction,omitempty"`
}

// ============================================================================
// Link Tables
// ============================================================================

// FundSectorLink connects a fund to one of its secondary sectors
type FundSectorLink struct {
	FundID   string `json:"fund_id"`
	SectorID string `json:"sector_id"`
}

// FundFactorLink connects a fund to a directly related factor
type FundFactorLink struct {
	FundID   string `json:"fund_id"`
	FactorID string `json:"factor_id"`
}

// FactorSectorLink connects a factor to a sector it typically affects
type FactorSectorLink struct {
	FactorID string `json:"factor_id"`
	SectorID string `json:"sector_id"`
}

// Tables is the raw tabular form of the knowledge base as produced by a Loader
type Tables struct {
	Funds                 []Fund
	AMCs                  []AMC
	Sectors               []Sector
	Factors               []Factor
	FundSecondarySectors  []FundSectorLink
	FundRelatedFactors    []FundFactorLink
	FactorAffectedSectors []FactorSectorLink
}

// Table names, shared by every loader and used in error messages
const (
	TableFunds                 = "funds"
	TableAMCs                  = "amcs"
	TableSectors               = "sectors"
	TableFactors               = "factors"
	TableFundSecondarySectors  = "fund_secondary_sectors"
	TableFundRelatedFactors    = "fund_related_factors"
	TableFactorAffectedSectors = "factor_affected_sectors"
)

// ============================================================================
// Enumerations
// ============================================================================

// RiskLevel is a fund risk bucket
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskLevels lists the levels in the order the resolver tries them
var RiskLevels = []RiskLevel{RiskHigh, RiskMedium, RiskLow}

// ParseRiskLevel matches s case-insensitively against the known levels
func ParseRiskLevel(s string) (RiskLevel, bool) {
	for _, lvl := range RiskLevels {
		if strings.EqualFold(strings.TrimSpace(s), string(lvl)) {
			return lvl, true
		}
	}
	return "", false
}

// Matches reports whether a raw risk value equals the level, ignoring case
func (r RiskLevel) Matches(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), string(r))
}

// AUMGroup is an AMC size bucket
type AUMGroup string

const (
	AUMSmall  AUMGroup = "Small"
	AUMMedium AUMGroup = "Medium"
	AUMLarge  AUMGroup = "Large"
)

// ParseAUMGroup matches s case-insensitively against the known groups
func ParseAUMGroup(s string) (AUMGroup, bool) {
	for _, g := range []AUMGroup{AUMSmall, AUMMedium, AUMLarge} {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, true
		}
	}
	return "", false
}
