// Package query runs the fixed set of lookups and relationship traversals
// over a knowledge base snapshot.
package query

import (
	"slices"
	"time"

	"fundrag/backend/internal/knowledge"
)

// Lookup is the result of a point lookup: either a found value or nothing.
// The zero Lookup is NotFound.
type Lookup[T any] struct {
	value T
	found bool
}

// Found wraps v as a successful lookup
func Found[T any](v T) Lookup[T] {
	return Lookup[T]{value: v, found: true}
}

// NotFound returns an empty lookup
func NotFound[T any]() Lookup[T] {
	return Lookup[T]{}
}

// Get returns the value and whether it was found
func (l Lookup[T]) Get() (T, bool) {
	return l.value, l.found
}

// OK reports whether the lookup found a value
func (l Lookup[T]) OK() bool { return l.found }

// FundDetails is a fund enriched with its link-table relationships
type FundDetails struct {
	knowledge.Fund
	// AMCName is empty when the managing AMC is not in the AMC table
	AMCName string `json:"amc_name,omitempty"`
	// SecondarySectors excludes the primary sector and holds no duplicates
	SecondarySectors []string `json:"secondary_sectors,omitempty"`
	RelatedFactors   []string `json:"related_factors,omitempty"`
}

// FactorDetails is a factor enriched with the sectors it typically affects
type FactorDetails struct {
	knowledge.Factor
	AffectedSectors []string `json:"typically_affected_sectors,omitempty"`
}

// Engine answers lookups against one immutable snapshot and holds no other
// state.
type Engine struct {
	snap *knowledge.Snapshot
}

// NewEngine creates an engine over snap. With a nil snapshot every point
// lookup is NotFound, every set lookup is empty and Available is false.
func NewEngine(snap *knowledge.Snapshot) *Engine {
	return &Engine{snap: snap}
}

// Available reports whether a snapshot is attached
func (e *Engine) Available() bool {
	return e.snap != nil
}

// Snapshot returns the snapshot the engine reads from
func (e *Engine) Snapshot() *knowledge.Snapshot {
	return e.snap
}

// ============================================================================
// Point lookups
// ============================================================================

// FundDetails looks up a fund by id
func (e *Engine) FundDetails(fundID string) Lookup[FundDetails] {
	if e.snap == nil {
		return NotFound[FundDetails]()
	}
	fund, ok := e.snap.Fund(fundID)
	if !ok {
		return NotFound[FundDetails]()
	}

	d := FundDetails{Fund: fund, RelatedFactors: e.snap.RelatedFactors(fundID)}
	if amc, ok := e.snap.AMC(fund.AMCID); ok {
		d.AMCName = amc.Name
	}
	for _, s := range e.snap.SecondarySectors(fundID) {
		if s != fund.PrimarySector && !slices.Contains(d.SecondarySectors, s) {
			d.SecondarySectors = append(d.SecondarySectors, s)
		}
	}
	return Found(d)
}

// AMCDetails looks up an AMC by id
func (e *Engine) AMCDetails(amcID string) Lookup[knowledge.AMC] {
	if e.snap == nil {
		return NotFound[knowledge.AMC]()
	}
	if amc, ok := e.snap.AMC(amcID); ok {
		return Found(amc)
	}
	return NotFound[knowledge.AMC]()
}

// SectorDetails looks up a sector by id
func (e *Engine) SectorDetails(sectorID string) Lookup[knowledge.Sector] {
	if e.snap == nil {
		return NotFound[knowledge.Sector]()
	}
	if sec, ok := e.snap.Sector(sectorID); ok {
		return Found(sec)
	}
	return NotFound[knowledge.Sector]()
}

// FactorDetails looks up a factor by id
func (e *Engine) FactorDetails(factorID string) Lookup[FactorDetails] {
	if e.snap == nil {
		return NotFound[FactorDetails]()
	}
	f, ok := e.snap.Factor(factorID)
	if !ok {
		return NotFound[FactorDetails]()
	}
	return Found(FactorDetails{Factor: f, AffectedSectors: e.snap.AffectedSectors(factorID)})
}

// ============================================================================
// Set lookups
//
// Every set lookup walks the fund table once, in table order, so results are
// stable and free of duplicates.
// ============================================================================

// FundsByAMC returns funds managed by amcID
func (e *Engine) FundsByAMC(amcID string) []knowledge.Fund {
	return e.filter(func(f knowledge.Fund) bool {
		return f.AMCID == amcID
	})
}

// FundsBySector returns funds with sectorID as their primary sector or as one
// of their secondary sectors. A sector with no row in the sector table
// matches nothing, the same as a dropped factor link.
func (e *Engine) FundsBySector(sectorID string) []knowledge.Fund {
	if e.snap == nil {
		return nil
	}
	if _, ok := e.snap.Sector(sectorID); !ok {
		return nil
	}
	secondary := setOf(e.snap.FundsWithSecondarySector(sectorID))
	return e.filter(func(f knowledge.Fund) bool {
		_, viaSecondary := secondary[f.ID]
		return f.PrimarySector == sectorID || viaSecondary
	})
}

// FundsByRisk returns funds whose risk level equals level, ignoring case
func (e *Engine) FundsByRisk(level string) []knowledge.Fund {
	lvl := knowledge.RiskLevel(level)
	if parsed, ok := knowledge.ParseRiskLevel(level); ok {
		lvl = parsed
	}
	return e.filter(func(f knowledge.Fund) bool {
		return lvl.Matches(f.Risk)
	})
}

// FundsByFactor returns the union of funds directly linked to factorID and
// funds whose primary or secondary sector is one the factor typically affects.
func (e *Engine) FundsByFactor(factorID string) []knowledge.Fund {
	if e.snap == nil {
		return nil
	}
	direct := setOf(e.snap.FundsRelatedToFactor(factorID))
	affected := setOf(e.snap.AffectedSectors(factorID))

	return e.filter(func(f knowledge.Fund) bool {
		if _, ok := direct[f.ID]; ok {
			return true
		}
		if _, ok := affected[f.PrimarySector]; ok {
			return true
		}
		for _, s := range e.snap.SecondarySectors(f.ID) {
			if _, ok := affected[s]; ok {
				return true
			}
		}
		return false
	})
}

func (e *Engine) filter(keep func(knowledge.Fund) bool) []knowledge.Fund {
	if e.snap == nil {
		return nil
	}
	var out []knowledge.Fund
	for _, f := range e.snap.Funds() {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func setOf(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// CountByRisk tallies funds per risk value as written in the fund table
func CountByRisk(funds []knowledge.Fund) map[string]int {
	out := make(map[string]int)
	for _, f := range funds {
		out[f.Risk]++
	}
	return out
}

// ============================================================================
// Catalog
// ============================================================================

// CatalogEntry is one id/name pair in an entity listing
type CatalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog lists every entity in the snapshot, in table order
type Catalog struct {
	Funds    []CatalogEntry `json:"funds"`
	AMCs     []CatalogEntry `json:"amcs"`
	Sectors  []CatalogEntry `json:"sectors"`
	Factors  []CatalogEntry `json:"factors"`
	Counts   map[string]int `json:"counts"`
	Source   string         `json:"source"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// Catalog returns the entity listings. The second result is false when no
// snapshot is attached.
func (e *Engine) Catalog() (Catalog, bool) {
	if e.snap == nil {
		return Catalog{}, false
	}
	c := Catalog{
		Counts:   e.snap.Counts(),
		Source:   e.snap.Source(),
		LoadedAt: e.snap.LoadedAt(),
	}
	for _, f := range e.snap.Funds() {
		c.Funds = append(c.Funds, CatalogEntry{ID: f.ID, Name: f.Name})
	}
	for _, a := range e.snap.AMCs() {
		c.AMCs = append(c.AMCs, CatalogEntry{ID: a.ID, Name: a.Name})
	}
	for _, s := range e.snap.Sectors() {
		c.Sectors = append(c.Sectors, CatalogEntry{ID: s.ID, Name: s.Name})
	}
	for _, f := range e.snap.Factors() {
		c.Factors = append(c.Factors, CatalogEntry{ID: f.ID, Name: f.Name})
	}
	return c, true
}
