package graph

import (
	"context"

	"fundrag/backend/internal/knowledge"
	apperrors "fundrag/backend/pkg/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

var constraints = []string{
	"CREATE CONSTRAINT fund_id IF NOT EXISTS FOR (f:Fund) REQUIRE f.id IS UNIQUE",
	"CREATE CONSTRAINT amc_id IF NOT EXISTS FOR (a:AMC) REQUIRE a.id IS UNIQUE",
	"CREATE CONSTRAINT sector_id IF NOT EXISTS FOR (s:Sector) REQUIRE s.id IS UNIQUE",
	"CREATE CONSTRAINT factor_id IF NOT EXISTS FOR (x:Factor) REQUIRE x.id IS UNIQUE",
}

// CreateConstraints makes entity ids unique. Safe to run repeatedly.
func (r *Repository) CreateConstraints(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, c := range constraints {
		if err := runAndConsume(ctx, session, c); err != nil {
			return apperrors.NewGraphQueryFailed(c, err)
		}
	}
	return nil
}

// Clear removes every knowledge base node and relationship
func (r *Repository) Clear(ctx context.Context) error {
	const query = `
		MATCH (n)
		WHERE n:Fund OR n:AMC OR n:Sector OR n:Factor
		DETACH DELETE n`

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if err := runAndConsume(ctx, session, query); err != nil {
		return apperrors.NewGraphQueryFailed("clear", err)
	}
	return nil
}

// runAndConsume runs an auto-commit query and waits for its summary so that
// errors raised while streaming are not lost
func runAndConsume(ctx context.Context, session neo4j.SessionWithContext, query string) error {
	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

// seedStep is one batched write: query is run once with $rows bound
type seedStep struct {
	name  string
	query string
	rows  []map[string]interface{}
}

// SeedTables writes t into the graph in one transaction. Nodes are merged by
// id, so seeding twice does not duplicate them. Link rows whose endpoints do
// not exist are skipped.
func (r *Repository) SeedTables(ctx context.Context, t *knowledge.Tables) error {
	steps := seedSteps(t)

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		for _, step := range steps {
			if len(step.rows) == 0 {
				continue
			}
			if _, err := tx.Run(ctx, step.query, map[string]interface{}{"rows": step.rows}); err != nil {
				return nil, apperrors.NewGraphQueryFailed(step.name, err)
			}
		}
		// Structural edges derived from fund properties
		for _, q := range []string{linkManagedBy, linkPrimarySector} {
			if _, err := tx.Run(ctx, q, nil); err != nil {
				return nil, apperrors.NewGraphQueryFailed("link", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("Knowledge base seeded",
		zap.Int("funds", len(t.Funds)),
		zap.Int("amcs", len(t.AMCs)),
		zap.Int("sectors", len(t.Sectors)),
		zap.Int("factors", len(t.Factors)),
		zap.Int("links", len(t.FundSecondarySectors)+len(t.FundRelatedFactors)+len(t.FactorAffectedSectors)),
	)
	return nil
}

const (
	mergeFunds = `
		UNWIND $rows AS row
		MERGE (f:Fund {id: row.id})
		SET f.key = row.key, f.name = row.name, f.amc_id = row.amc_id, f.risk = row.risk,
		    f.primary_sector = row.primary_sector, f.description = row.description, f.ord = row.ord`

	mergeAMCs = `
		UNWIND $rows AS row
		MERGE (a:AMC {id: row.id})
		SET a.name = row.name, a.established = row.established, a.aum_group = row.aum_group, a.ord = row.ord`

	mergeSectors = `
		UNWIND $rows AS row
		MERGE (s:Sector {id: row.id})
		SET s.name = row.name, s.description = row.description,
		    s.sensitivity_notes = row.sensitivity_notes, s.ord = row.ord`

	mergeFactors = `
		UNWIND $rows AS row
		MERGE (x:Factor {id: row.id})
		SET x.name = row.name, x.description = row.description,
		    x.impact_direction = row.impact_direction, x.ord = row.ord`

	mergeSecondarySectors = `
		UNWIND $rows AS row
		MATCH (f:Fund {id: row.from}), (s:Sector {id: row.to})
		MERGE (f)-[r:SECONDARY_SECTOR]->(s)
		SET r.ord = row.ord`

	mergeRelatedFactors = `
		UNWIND $rows AS row
		MATCH (f:Fund {id: row.from}), (x:Factor {id: row.to})
		MERGE (f)-[r:RELATED_TO]->(x)
		SET r.ord = row.ord`

	mergeAffectedSectors = `
		UNWIND $rows AS row
		MATCH (x:Factor {id: row.from}), (s:Sector {id: row.to})
		MERGE (x)-[r:AFFECTS]->(s)
		SET r.ord = row.ord`

	linkManagedBy = `
		MATCH (f:Fund), (a:AMC)
		WHERE a.id = f.amc_id
		MERGE (f)-[:MANAGED_BY]->(a)`

	linkPrimarySector = `
		MATCH (f:Fund), (s:Sector)
		WHERE s.id = f.primary_sector
		MERGE (f)-[:PRIMARY_SECTOR]->(s)`
)

// seedSteps converts the tables into parameter rows for each batched write
func seedSteps(t *knowledge.Tables) []seedStep {
	funds := make([]map[string]interface{}, 0, len(t.Funds))
	for i, f := range t.Funds {
		funds = append(funds, map[string]interface{}{
			"id": f.ID, "key": f.Key, "name": f.Name, "amc_id": f.AMCID, "risk": f.Risk,
			"primary_sector": f.PrimarySector, "description": f.Description, "ord": i,
		})
	}
	amcs := make([]map[string]interface{}, 0, len(t.AMCs))
	for i, a := range t.AMCs {
		amcs = append(amcs, map[string]interface{}{
			"id": a.ID, "name": a.Name, "established": a.Established, "aum_group": a.AUMGroup, "ord": i,
		})
	}
	sectors := make([]map[string]interface{}, 0, len(t.Sectors))
	for i, s := range t.Sectors {
		sectors = append(sectors, map[string]interface{}{
			"id": s.ID, "name": s.Name, "description": s.Description,
			"sensitivity_notes": s.SensitivityNotes, "ord": i,
		})
	}
	factors := make([]map[string]interface{}, 0, len(t.Factors))
	for i, x := range t.Factors {
		factors = append(factors, map[string]interface{}{
			"id": x.ID, "name": x.Name, "description": x.Description,
			"impact_direction": x.ImpactDirection, "ord": i,
		})
	}

	secondary := make([]map[string]interface{}, 0, len(t.FundSecondarySectors))
	for i, l := range t.FundSecondarySectors {
		secondary = append(secondary, linkRow(l.FundID, l.SectorID, i))
	}
	related := make([]map[string]interface{}, 0, len(t.FundRelatedFactors))
	for i, l := range t.FundRelatedFactors {
		related = append(related, linkRow(l.FundID, l.FactorID, i))
	}
	affected := make([]map[string]interface{}, 0, len(t.FactorAffectedSectors))
	for i, l := range t.FactorAffectedSectors {
		affected = append(affected, linkRow(l.FactorID, l.SectorID, i))
	}

	// Nodes before relationships
	return []seedStep{
		{name: knowledge.TableFunds, query: mergeFunds, rows: funds},
		{name: knowledge.TableAMCs, query: mergeAMCs, rows: amcs},
		{name: knowledge.TableSectors, query: mergeSectors, rows: sectors},
		{name: knowledge.TableFactors, query: mergeFactors, rows: factors},
		{name: knowledge.TableFundSecondarySectors, query: mergeSecondarySectors, rows: secondary},
		{name: knowledge.TableFundRelatedFactors, query: mergeRelatedFactors, rows: related},
		{name: knowledge.TableFactorAffectedSectors, query: mergeAffectedSectors, rows: affected},
	}
}

func linkRow(from, to string, ord int) map[string]interface{} {
	return map[string]interface{}{"from": from, "to": to, "ord": ord}
}
