package graph

import (
	"context"

	"fundrag/backend/internal/knowledge"
	apperrors "fundrag/backend/pkg/errors"
	"fundrag/backend/pkg/logger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Graph schema:
//
//	(:Fund {id, key, name, amc_id, risk, primary_sector, description, ord})
//	(:AMC {id, name, established, aum_group, ord})
//	(:Sector {id, name, description, sensitivity_notes, ord})
//	(:Factor {id, name, description, impact_direction, ord})
//	(:Fund)-[:MANAGED_BY]->(:AMC)
//	(:Fund)-[:PRIMARY_SECTOR]->(:Sector)
//	(:Fund)-[:SECONDARY_SECTOR {ord}]->(:Sector)
//	(:Fund)-[:RELATED_TO {ord}]->(:Factor)
//	(:Factor)-[:AFFECTS {ord}]->(:Sector)
//
// ord keeps the row order of the source tables so a round trip through the
// graph reproduces them exactly.

// Repository reads and writes the knowledge base in Neo4j
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Named("graph"),
	}
}

// Connect opens a driver and verifies connectivity
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	return driver, nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Name implements knowledge.Loader
func (r *Repository) Name() string { return "neo4j" }

// ============================================================================
// Loading
// ============================================================================

const (
	queryFunds = `
		MATCH (f:Fund)
		RETURN f.id AS fund_id, f.key AS internal_key, f.name AS name, f.amc_id AS amc_id,
		       f.risk AS risk, f.primary_sector AS primary_sector, f.description AS description
		ORDER BY f.ord, f.id`

	queryAMCs = `
		MATCH (a:AMC)
		RETURN a.id AS amc_id, a.name AS name, a.established AS established, a.aum_group AS aum_group
		ORDER BY a.ord, a.id`

	querySectors = `
		MATCH (s:Sector)
		RETURN s.id AS sector_id, s.name AS name, s.description AS description,
		       s.sensitivity_notes AS sensitivity_notes
		ORDER BY s.ord, s.id`

	queryFactors = `
		MATCH (x:Factor)
		RETURN x.id AS factor_id, x.name AS name, x.description AS description,
		       x.impact_direction AS impact_direction
		ORDER BY x.ord, x.id`

	querySecondarySectors = `
		MATCH (f:Fund)-[r:SECONDARY_SECTOR]->(s:Sector)
		RETURN f.id AS fund_id, s.id AS sector_id
		ORDER BY r.ord`

	queryRelatedFactors = `
		MATCH (f:Fund)-[r:RELATED_TO]->(x:Factor)
		RETURN f.id AS fund_id, x.id AS factor_id
		ORDER BY r.ord`

	queryAffectedSectors = `
		MATCH (x:Factor)-[r:AFFECTS]->(s:Sector)
		RETURN x.id AS factor_id, s.id AS sector_id
		ORDER BY r.ord`
)

// Load implements knowledge.Loader. The seven tables are read concurrently,
// each in its own read session.
func (r *Repository) Load(ctx context.Context) (*knowledge.Tables, error) {
	t := &knowledge.Tables{}
	g, gctx := errgroup.WithContext(ctx)

	// Each goroutine writes a distinct field of t.
	g.Go(func() error {
		return r.readInto(gctx, knowledge.TableFunds, queryFunds, func(rec *neo4j.Record) {
			t.Funds = append(t.Funds, fundFromRecord(rec))
		})
	})
	g.Go(func() error {
		return r.readInto(gctx, knowledge.TableAMCs, queryAMCs, func(rec *neo4j.Record) {
			t.AMCs = append(t.AMCs, amcFromRecord(rec))
		})
	})
	g.Go(func() error {
		return r.readInto(gctx, knowledge.TableSectors, querySectors, func(rec *neo4j.Record) {
			t.Sectors = append(t.Sectors, sectorFromRecord(rec))
		})
	})
	g.Go(func() error {
		return r.readInto(gctx, knowledge.TableFactors, queryFactors, func(rec *neo4j.Record) {
			t.Factors = append(t.Factors, factorFromRecord(rec))
		})
	})
	g.Go(func() error {
		return r.readInto(gctx, knowledge.TableFundSecondarySectors, querySecondarySectors, func(rec *neo4j.Record) {
			t.FundSecondarySectors = append(t.FundSecondarySectors, knowledge.FundSectorLink{
				FundID:   getStringFromRecord(rec, "fund_id"),
				SectorID: getStringFromRecord(rec, "sector_id"),
			})
		})
	})
	g.Go(func() error {
		return r.readInto(gctx, knowledge.TableFundRelatedFactors, queryRelatedFactors, func(rec *neo4j.Record) {
			t.FundRelatedFactors = append(t.FundRelatedFactors, knowledge.FundFactorLink{
				FundID:   getStringFromRecord(rec, "fund_id"),
				FactorID: getStringFromRecord(rec, "factor_id"),
			})
		})
	})
	g.Go(func() error {
		return r.readInto(gctx, knowledge.TableFactorAffectedSectors, queryAffectedSectors, func(rec *neo4j.Record) {
			t.FactorAffectedSectors = append(t.FactorAffectedSectors, knowledge.FactorSectorLink{
				FactorID: getStringFromRecord(rec, "factor_id"),
				SectorID: getStringFromRecord(rec, "sector_id"),
			})
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("Knowledge base read from graph",
		zap.Int("funds", len(t.Funds)),
		zap.Int("amcs", len(t.AMCs)),
		zap.Int("sectors", len(t.Sectors)),
		zap.Int("factors", len(t.Factors)),
	)
	return t, nil
}

// readInto runs query in a read transaction and passes every record to each
func (r *Repository) readInto(ctx context.Context, table, query string, each func(*neo4j.Record)) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	records, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]*neo4j.Record, error) {
		result, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.NewContextCancelled("load "+table, ctx.Err())
		}
		return apperrors.NewLoadFailed(r.Name(), table, apperrors.NewGraphQueryFailed(table, err))
	}
	for _, rec := range records {
		each(rec)
	}
	return nil
}

func fundFromRecord(rec *neo4j.Record) knowledge.Fund {
	return knowledge.Fund{
		ID:            getStringFromRecord(rec, "fund_id"),
		Key:           getStringFromRecord(rec, "internal_key"),
		Name:          getStringFromRecord(rec, "name"),
		AMCID:         getStringFromRecord(rec, "amc_id"),
		Risk:          getStringFromRecord(rec, "risk"),
		PrimarySector: getStringFromRecord(rec, "primary_sector"),
		Description:   getStringFromRecord(rec, "description"),
	}
}

func amcFromRecord(rec *neo4j.Record) knowledge.AMC {
	return knowledge.AMC{
		ID:          getStringFromRecord(rec, "amc_id"),
		Name:        getStringFromRecord(rec, "name"),
		Established: getIntFromRecord(rec, "established"),
		AUMGroup:    getStringFromRecord(rec, "aum_group"),
	}
}

func sectorFromRecord(rec *neo4j.Record) knowledge.Sector {
	id := getStringFromRecord(rec, "sector_id")
	return knowledge.Sector{
		ID:               id,
		Name:             getStringOr(rec, "name", id),
		Description:      getStringFromRecord(rec, "description"),
		SensitivityNotes: getStringFromRecord(rec, "sensitivity_notes"),
	}
}

func factorFromRecord(rec *neo4j.Record) knowledge.Factor {
	id := getStringFromRecord(rec, "factor_id")
	return knowledge.Factor{
		ID:              id,
		Name:            getStringOr(rec, "name", id),
		Description:     getStringFromRecord(rec, "description"),
		ImpactDirection: getStringFromRecord(rec, "impact_direction"),
	}
}
