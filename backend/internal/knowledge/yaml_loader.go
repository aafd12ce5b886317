package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	apperrors "fundrag/backend/pkg/errors"
	"gopkg.in/yaml.v3"
)

// YAMLLoader reads the knowledge base from a single nested document where
// each entity table is a mapping keyed by identifier and relationships are
// inline lists:
//
//	funds:
//	  FundC_Infra:
//	    id: F003
//	    name: FundC Infrastructure
//	    amc: AMC_X
//	    risk: Medium
//	    primary_sector: Infrastructure
//	    secondary_sectors: [Energy]
//	    related_factors: [Crude Oil Price]
//	amcs:
//	  AMC_X: {name: Alpha Management Corp, established: 2005, aum_group: Large}
//	sectors:
//	  Energy: {description: ..., sensitivity_notes: ...}
//	factors:
//	  Crude Oil Price: {impact_direction: Varies, typically_affected_sectors: [Energy]}
//
// AMC, sector and factor ids are the mapping keys. A fund's id is its "id"
// field (the key is kept as Fund.Key) and falls back to the key.
type YAMLLoader struct {
	Path string
}

// NewYAMLLoader creates a loader for the document at path
func NewYAMLLoader(path string) *YAMLLoader {
	return &YAMLLoader{Path: path}
}

// Name implements Loader
func (l *YAMLLoader) Name() string { return "yaml" }

// Load reads and flattens the document into tables
func (l *YAMLLoader) Load(ctx context.Context) (*Tables, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewContextCancelled("load yaml", err)
	}
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, apperrors.NewLoadFailed(l.Name(), "*", err)
	}
	defer f.Close()
	return DecodeYAML(f)
}

type yamlDocument struct {
	Funds   keyedList[yamlFund]   `yaml:"funds"`
	AMCs    keyedList[yamlAMC]    `yaml:"amcs"`
	Sectors keyedList[yamlSector] `yaml:"sectors"`
	Factors keyedList[yamlFactor] `yaml:"factors"`
}

type yamlFund struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	AMC              string   `yaml:"amc"`
	Risk             string   `yaml:"risk"`
	PrimarySector    string   `yaml:"primary_sector"`
	SecondarySectors []string `yaml:"secondary_sectors"`
	RelatedFactors   []string `yaml:"related_factors"`
	Description      string   `yaml:"description"`
}

type yamlAMC struct {
	Name        string `yaml:"name"`
	Established int    `yaml:"established"`
	AUMGroup    string `yaml:"aum_group"`
}

type yamlSector struct {
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	SensitivityNotes string `yaml:"sensitivity_notes"`
}

type yamlFactor struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	ImpactDirection string   `yaml:"impact_direction"`
	AffectedSectors []string `yaml:"typically_affected_sectors"`
}

// keyedList decodes a YAML mapping while keeping document order, which a Go
// map would lose.
type keyedList[T any] []keyedEntry[T]

type keyedEntry[T any] struct {
	Key   string
	Value T
}

func (k *keyedList[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var entry keyedEntry[T]
		if err := node.Content[i].Decode(&entry.Key); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&entry.Value); err != nil {
			return fmt.Errorf("%s: %w", entry.Key, err)
		}
		*k = append(*k, entry)
	}
	return nil
}

// DecodeYAML parses a nested knowledge base document from r
func DecodeYAML(r io.Reader) (*Tables, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewLoadFailed("yaml", "*", err)
	}

	t := &Tables{}
	for _, e := range doc.Funds {
		f := e.Value
		id := f.ID
		if id == "" {
			id = e.Key
		}
		if f.Name == "" {
			return nil, apperrors.NewTableMalformed(TableFunds, len(t.Funds)+1, "name")
		}
		t.Funds = append(t.Funds, Fund{
			ID:            id,
			Key:           e.Key,
			Name:          f.Name,
			AMCID:         f.AMC,
			Risk:          f.Risk,
			PrimarySector: f.PrimarySector,
			Description:   f.Description,
		})
		for _, s := range f.SecondarySectors {
			t.FundSecondarySectors = append(t.FundSecondarySectors, FundSectorLink{FundID: id, SectorID: s})
		}
		for _, fac := range f.RelatedFactors {
			t.FundRelatedFactors = append(t.FundRelatedFactors, FundFactorLink{FundID: id, FactorID: fac})
		}
	}
	for _, e := range doc.AMCs {
		t.AMCs = append(t.AMCs, AMC{
			ID:          e.Key,
			Name:        orKey(e.Value.Name, e.Key),
			Established: e.Value.Established,
			AUMGroup:    e.Value.AUMGroup,
		})
	}
	for _, e := range doc.Sectors {
		t.Sectors = append(t.Sectors, Sector{
			ID:               e.Key,
			Name:             orKey(e.Value.Name, e.Key),
			Description:      e.Value.Description,
			SensitivityNotes: e.Value.SensitivityNotes,
		})
	}
	for _, e := range doc.Factors {
		t.Factors = append(t.Factors, Factor{
			ID:              e.Key,
			Name:            orKey(e.Value.Name, e.Key),
			Description:     e.Value.Description,
			ImpactDirection: e.Value.ImpactDirection,
		})
		for _, s := range e.Value.AffectedSectors {
			t.FactorAffectedSectors = append(t.FactorAffectedSectors, FactorSectorLink{FactorID: e.Key, SectorID: s})
		}
	}
	return t, nil
}

func orKey(v, key string) string {
	if v == "" {
		return key
	}
	return v
}
