package knowledge

import (
	"slices"
	"strings"
	"time"

	"fundrag/backend/pkg/logger"
	"go.uber.org/zap"
)

// Term is a set of lower-cased needles that identify one entity in free text.
// Terms returned by a Snapshot are shared and must not be modified.
type Term struct {
	ID      string
	Needles []string
}

// Snapshot is an immutable, indexed view of one load of the knowledge base.
// Nothing reachable from a Snapshot is modified after Build returns, so a
// snapshot may be shared by any number of concurrent readers.
type Snapshot struct {
	funds   []Fund
	amcs    []AMC
	sectors []Sector
	factors []Factor

	fundIdx   map[string]int
	amcIdx    map[string]int
	sectorIdx map[string]int
	factorIdx map[string]int

	// adjacency lists keyed by the first id; values keep link table order
	secondaryByFund  map[string][]string
	fundsBySecondary map[string][]string
	factorsByFund    map[string][]string
	fundsByFactor    map[string][]string
	sectorsByFactor  map[string][]string

	fundTerms   []Term
	amcTerms    []Term
	sectorTerms []Term
	factorTerms []Term

	source   string
	loadedAt time.Time
	dropped  int
}

// Build indexes tables into a Snapshot. Duplicate ids keep the first row.
// Link rows that reference a missing entity, and exact duplicate link rows,
// are dropped.
func Build(t *Tables, source string) *Snapshot {
	if t == nil {
		t = &Tables{}
	}
	log := logger.Named("knowledge")

	s := &Snapshot{
		fundIdx:          make(map[string]int, len(t.Funds)),
		amcIdx:           make(map[string]int, len(t.AMCs)),
		sectorIdx:        make(map[string]int, len(t.Sectors)),
		factorIdx:        make(map[string]int, len(t.Factors)),
		secondaryByFund:  make(map[string][]string),
		fundsBySecondary: make(map[string][]string),
		factorsByFund:    make(map[string][]string),
		fundsByFactor:    make(map[string][]string),
		sectorsByFactor:  make(map[string][]string),
		source:           source,
		loadedAt:         time.Now().UTC(),
	}

	duplicates := 0
	for _, f := range t.Funds {
		if _, seen := s.fundIdx[f.ID]; seen || f.ID == "" {
			duplicates++
			continue
		}
		s.fundIdx[f.ID] = len(s.funds)
		s.funds = append(s.funds, f)
		s.fundTerms = append(s.fundTerms, newTerm(f.ID, f.Name))
	}
	for _, a := range t.AMCs {
		if _, seen := s.amcIdx[a.ID]; seen || a.ID == "" {
			duplicates++
			continue
		}
		s.amcIdx[a.ID] = len(s.amcs)
		s.amcs = append(s.amcs, a)
		s.amcTerms = append(s.amcTerms, newTerm(a.ID, a.Name, a.ID))
	}
	for _, sec := range t.Sectors {
		if _, seen := s.sectorIdx[sec.ID]; seen || sec.ID == "" {
			duplicates++
			continue
		}
		s.sectorIdx[sec.ID] = len(s.sectors)
		s.sectors = append(s.sectors, sec)
		s.sectorTerms = append(s.sectorTerms, newTerm(sec.ID, sec.Name, sec.ID))
	}
	for _, f := range t.Factors {
		if _, seen := s.factorIdx[f.ID]; seen || f.ID == "" {
			duplicates++
			continue
		}
		s.factorIdx[f.ID] = len(s.factors)
		s.factors = append(s.factors, f)
		s.factorTerms = append(s.factorTerms, newTerm(f.ID, f.Name))
	}

	for _, l := range t.FundSecondarySectors {
		if !s.hasFund(l.FundID) || !s.hasSector(l.SectorID) || slices.Contains(s.secondaryByFund[l.FundID], l.SectorID) {
			s.dropped++
			continue
		}
		s.secondaryByFund[l.FundID] = append(s.secondaryByFund[l.FundID], l.SectorID)
		s.fundsBySecondary[l.SectorID] = append(s.fundsBySecondary[l.SectorID], l.FundID)
	}
	for _, l := range t.FundRelatedFactors {
		if !s.hasFund(l.FundID) || !s.hasFactor(l.FactorID) || slices.Contains(s.factorsByFund[l.FundID], l.FactorID) {
			s.dropped++
			continue
		}
		s.factorsByFund[l.FundID] = append(s.factorsByFund[l.FundID], l.FactorID)
		s.fundsByFactor[l.FactorID] = append(s.fundsByFactor[l.FactorID], l.FundID)
	}
	for _, l := range t.FactorAffectedSectors {
		if !s.hasFactor(l.FactorID) || !s.hasSector(l.SectorID) || slices.Contains(s.sectorsByFactor[l.FactorID], l.SectorID) {
			s.dropped++
			continue
		}
		s.sectorsByFactor[l.FactorID] = append(s.sectorsByFactor[l.FactorID], l.SectorID)
	}

	if duplicates > 0 || s.dropped > 0 {
		log.Warn("Knowledge base rows skipped while indexing",
			zap.String("source", source),
			zap.Int("duplicate_or_blank_ids", duplicates),
			zap.Int("dropped_links", s.dropped),
		)
	}
	log.Debug("Knowledge snapshot built",
		zap.String("source", source),
		zap.Any("counts", s.Counts()),
	)
	return s
}

func newTerm(id string, needles ...string) Term {
	term := Term{ID: id}
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" && !slices.Contains(term.Needles, n) {
			term.Needles = append(term.Needles, n)
		}
	}
	return term
}

func (s *Snapshot) hasFund(id string) bool   { _, ok := s.fundIdx[id]; return ok }
func (s *Snapshot) hasSector(id string) bool { _, ok := s.sectorIdx[id]; return ok }
func (s *Snapshot) hasFactor(id string) bool { _, ok := s.factorIdx[id]; return ok }

// Empty reports whether all four entity tables are empty
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.funds)+len(s.amcs)+len(s.sectors)+len(s.factors) == 0
}

// Source names the loader that produced the snapshot
func (s *Snapshot) Source() string { return s.source }

// LoadedAt is the UTC time the snapshot was built
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// DroppedLinks is the number of link rows discarded by Build
func (s *Snapshot) DroppedLinks() int { return s.dropped }

// Counts returns row counts per table, after indexing
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		TableFunds:                 len(s.funds),
		TableAMCs:                  len(s.amcs),
		TableSectors:               len(s.sectors),
		TableFactors:               len(s.factors),
		TableFundSecondarySectors:  countValues(s.secondaryByFund),
		TableFundRelatedFactors:    countValues(s.factorsByFund),
		TableFactorAffectedSectors: countValues(s.sectorsByFactor),
	}
}

func countValues(m map[string][]string) int {
	n := 0
	for _, v := range m {
		n += len(v)
	}
	return n
}

// ============================================================================
// Lookups
// ============================================================================

// Funds returns all funds in table order
func (s *Snapshot) Funds() []Fund { return slices.Clone(s.funds) }

// AMCs returns all AMCs in table order
func (s *Snapshot) AMCs() []AMC { return slices.Clone(s.amcs) }

// Sectors returns all sectors in table order
func (s *Snapshot) Sectors() []Sector { return slices.Clone(s.sectors) }

// Factors returns all factors in table order
func (s *Snapshot) Factors() []Factor { return slices.Clone(s.factors) }

// Fund looks up a fund by id
func (s *Snapshot) Fund(id string) (Fund, bool) {
	if i, ok := s.fundIdx[id]; ok {
		return s.funds[i], true
	}
	return Fund{}, false
}

// AMC looks up an AMC by id
func (s *Snapshot) AMC(id string) (AMC, bool) {
	if i, ok := s.amcIdx[id]; ok {
		return s.amcs[i], true
	}
	return AMC{}, false
}

// Sector looks up a sector by id
func (s *Snapshot) Sector(id string) (Sector, bool) {
	if i, ok := s.sectorIdx[id]; ok {
		return s.sectors[i], true
	}
	return Sector{}, false
}

// Factor looks up a factor by id
func (s *Snapshot) Factor(id string) (Factor, bool) {
	if i, ok := s.factorIdx[id]; ok {
		return s.factors[i], true
	}
	return Factor{}, false
}

// SecondarySectors returns the secondary sector ids linked to a fund
func (s *Snapshot) SecondarySectors(fundID string) []string {
	return slices.Clone(s.secondaryByFund[fundID])
}

// FundsWithSecondarySector returns the ids of funds linked to a secondary sector
func (s *Snapshot) FundsWithSecondarySector(sectorID string) []string {
	return slices.Clone(s.fundsBySecondary[sectorID])
}

// RelatedFactors returns the factor ids directly linked to a fund
func (s *Snapshot) RelatedFactors(fundID string) []string {
	return slices.Clone(s.factorsByFund[fundID])
}

// FundsRelatedToFactor returns the ids of funds directly linked to a factor
func (s *Snapshot) FundsRelatedToFactor(factorID string) []string {
	return slices.Clone(s.fundsByFactor[factorID])
}

// AffectedSectors returns the sector ids a factor typically affects
func (s *Snapshot) AffectedSectors(factorID string) []string {
	return slices.Clone(s.sectorsByFactor[factorID])
}

// ============================================================================
// Text search terms
// ============================================================================

// FundTerms returns fund display names, lower-cased, in table order
func (s *Snapshot) FundTerms() []Term { return s.fundTerms }

// AMCTerms returns AMC display names and ids, lower-cased, in table order
func (s *Snapshot) AMCTerms() []Term { return s.amcTerms }

// SectorTerms returns sector display names and ids, lower-cased, in table order
func (s *Snapshot) SectorTerms() []Term { return s.sectorTerms }

// FactorTerms returns factor display names, lower-cased, in table order
func (s *Snapshot) FactorTerms() []Term { return s.factorTerms }
