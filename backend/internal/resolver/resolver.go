// Package resolver maps free-text questions onto a single intent and the
// knowledge base entity it refers to.
package resolver

import (
	"strings"

	"fundrag/backend/internal/knowledge"
	"fundrag/backend/pkg/logger"
	"go.uber.org/zap"
)

// Intent is the classified information need of a query
type Intent string

const (
	IntentFundDetails     Intent = "fund-details"
	IntentAMCDetails      Intent = "amc-details"
	IntentSectorDetails   Intent = "sector-details"
	IntentFactorDetails   Intent = "factor-details"
	IntentFundsByAMC      Intent = "funds-by-amc"
	IntentFundsBySector   Intent = "funds-by-sector"
	IntentFundsByRisk     Intent = "funds-by-risk"
	IntentFundsByFactor   Intent = "funds-by-factor"
	IntentUnknown         Intent = "unknown"
	IntentDataUnavailable Intent = "data-unavailable"
)

// IsSet reports whether the intent returns a list of funds
func (i Intent) IsSet() bool {
	switch i {
	case IntentFundsByAMC, IntentFundsBySector, IntentFundsByRisk, IntentFundsByFactor:
		return true
	}
	return false
}

// EntityKind names the table an EntityRef points into
type EntityKind string

const (
	KindNone   EntityKind = ""
	KindFund   EntityKind = "fund"
	KindAMC    EntityKind = "amc"
	KindSector EntityKind = "sector"
	KindFactor EntityKind = "factor"
	KindRisk   EntityKind = "risk"
)

// entityKeys are the caller-facing keys used by Resolution.Entities
var entityKeys = map[EntityKind]string{
	KindFund:   "fund_id",
	KindAMC:    "amc_id",
	KindSector: "sector_id",
	KindFactor: "factor_id",
	KindRisk:   "risk_level",
}

// EntityRef identifies the entity bound during resolution. For KindRisk the
// ID is the capitalized level ("High").
type EntityRef struct {
	Kind EntityKind `json:"kind,omitempty"`
	ID   string     `json:"id,omitempty"`
}

// IsZero reports whether no entity was bound
func (r EntityRef) IsZero() bool { return r.Kind == KindNone }

// Resolution is the outcome of resolving one query
type Resolution struct {
	Intent Intent    `json:"intent"`
	Entity EntityRef `json:"entity"`
}

// Entities renders the bound entity as the key/value mapping callers see,
// e.g. {"factor_id": "Crude Oil Price"}. It is empty when nothing was bound.
func (r Resolution) Entities() map[string]string {
	out := make(map[string]string, 1)
	if key, ok := entityKeys[r.Entity.Kind]; ok && r.Entity.ID != "" {
		out[key] = r.Entity.ID
	}
	return out
}

// Keyword sets that select between the detail and list form of an intent
var (
	factorListWords = []string{"affect", "impact", "related", "sensitive"}
	amcListWords    = []string{"funds", "manage", "portfolio"}
	sectorListWords = []string{"funds", "invest"}
	fundWords       = []string{"fund"} // also matches "funds"
)

// Resolver scans queries against the names and ids in one snapshot
type Resolver struct {
	snap   *knowledge.Snapshot
	logger *zap.Logger
}

// New creates a resolver bound to snap. A nil or empty snapshot is allowed;
// every query then resolves to IntentDataUnavailable.
func New(snap *knowledge.Snapshot) *Resolver {
	return &Resolver{snap: snap, logger: logger.Named("resolver")}
}

// Resolve classifies query. The scan runs in a fixed priority order and the
// first entity match wins: factors, funds, AMCs, sectors, then risk levels.
func (r *Resolver) Resolve(query string) Resolution {
	if r.snap.Empty() {
		return Resolution{Intent: IntentDataUnavailable}
	}
	q := strings.ToLower(query)

	res := r.scan(q)
	r.logger.Debug("Query resolved",
		zap.String("intent", string(res.Intent)),
		zap.String("entity_kind", string(res.Entity.Kind)),
		zap.String("entity_id", res.Entity.ID),
	)
	return res
}

func (r *Resolver) scan(q string) Resolution {
	if id, ok := firstMatch(q, r.snap.FactorTerms()); ok {
		return bind(KindFactor, id, pick(q, factorListWords, IntentFundsByFactor, IntentFactorDetails))
	}
	if id, ok := firstMatch(q, r.snap.FundTerms()); ok {
		return bind(KindFund, id, IntentFundDetails)
	}
	if id, ok := firstMatch(q, r.snap.AMCTerms()); ok {
		return bind(KindAMC, id, pick(q, amcListWords, IntentFundsByAMC, IntentAMCDetails))
	}
	if id, ok := firstMatch(q, r.snap.SectorTerms()); ok {
		return bind(KindSector, id, pick(q, sectorListWords, IntentFundsBySector, IntentSectorDetails))
	}
	for _, lvl := range knowledge.RiskLevels {
		if strings.Contains(q, strings.ToLower(string(lvl))) {
			// Only the first risk token found is considered
			if containsAny(q, fundWords) {
				return bind(KindRisk, string(lvl), IntentFundsByRisk)
			}
			break
		}
	}
	return Resolution{Intent: IntentUnknown}
}

func bind(kind EntityKind, id string, intent Intent) Resolution {
	return Resolution{Intent: intent, Entity: EntityRef{Kind: kind, ID: id}}
}

func pick(q string, words []string, list, detail Intent) Intent {
	if containsAny(q, words) {
		return list
	}
	return detail
}

// firstMatch returns the id of the first term, in table order, with a needle
// occurring in q
func firstMatch(q string, terms []knowledge.Term) (string, bool) {
	for _, t := range terms {
		if containsAny(q, t.Needles) {
			return t.ID, true
		}
	}
	return "", false
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}
