package knowledge

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	apperrors "fundrag/backend/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// CSVLoader reads the knowledge base from one CSV file per table
// (funds.csv, amcs.csv, ..., factor_affected_sectors.csv) in Dir.
type CSVLoader struct {
	Dir string
}

// NewCSVLoader creates a loader for the tables in dir
func NewCSVLoader(dir string) *CSVLoader {
	return &CSVLoader{Dir: dir}
}

// Name implements Loader
func (l *CSVLoader) Name() string { return "csv" }

// Load reads all seven tables concurrently
func (l *CSVLoader) Load(ctx context.Context) (*Tables, error) {
	t := &Tables{}
	g, gctx := errgroup.WithContext(ctx)

	// Each goroutine writes a distinct field of t.
	g.Go(func() error {
		rows, err := l.read(gctx, TableFunds, "fund_id", "name")
		if err != nil {
			return err
		}
		for _, r := range rows {
			t.Funds = append(t.Funds, Fund{
				ID:            r.get("fund_id"),
				Key:           r.get("internal_key"),
				Name:          r.get("name"),
				AMCID:         r.get("amc_id"),
				Risk:          r.get("risk"),
				PrimarySector: r.get("primary_sector"),
				Description:   r.get("description"),
			})
		}
		return nil
	})
	g.Go(func() error {
		rows, err := l.read(gctx, TableAMCs, "amc_id", "name")
		if err != nil {
			return err
		}
		for _, r := range rows {
			t.AMCs = append(t.AMCs, AMC{
				ID:          r.get("amc_id"),
				Name:        r.get("name"),
				Established: parseYear(r.get("established")),
				AUMGroup:    r.get("aum_group"),
			})
		}
		return nil
	})
	g.Go(func() error {
		rows, err := l.read(gctx, TableSectors, "sector_id")
		if err != nil {
			return err
		}
		for _, r := range rows {
			t.Sectors = append(t.Sectors, Sector{
				ID:               r.get("sector_id"),
				Name:             r.getOr("name", r.get("sector_id")),
				Description:      r.get("description"),
				SensitivityNotes: r.get("sensitivity_notes"),
			})
		}
		return nil
	})
	g.Go(func() error {
		rows, err := l.read(gctx, TableFactors, "factor_id")
		if err != nil {
			return err
		}
		for _, r := range rows {
			t.Factors = append(t.Factors, Factor{
				ID:              r.get("factor_id"),
				Name:            r.getOr("name", r.get("factor_id")),
				Description:     r.get("description"),
				ImpactDirection: r.get("impact_direction"),
			})
		}
		return nil
	})
	g.Go(func() error {
		rows, err := l.read(gctx, TableFundSecondarySectors, "fund_id", "sector_id")
		if err != nil {
			return err
		}
		for _, r := range rows {
			t.FundSecondarySectors = append(t.FundSecondarySectors, FundSectorLink{FundID: r.get("fund_id"), SectorID: r.get("sector_id")})
		}
		return nil
	})
	g.Go(func() error {
		rows, err := l.read(gctx, TableFundRelatedFactors, "fund_id", "factor_id")
		if err != nil {
			return err
		}
		for _, r := range rows {
			t.FundRelatedFactors = append(t.FundRelatedFactors, FundFactorLink{FundID: r.get("fund_id"), FactorID: r.get("factor_id")})
		}
		return nil
	})
	g.Go(func() error {
		rows, err := l.read(gctx, TableFactorAffectedSectors, "factor_id", "sector_id")
		if err != nil {
			return err
		}
		for _, r := range rows {
			t.FactorAffectedSectors = append(t.FactorAffectedSectors, FactorSectorLink{FactorID: r.get("factor_id"), SectorID: r.get("sector_id")})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

// csvRow maps lower-cased header names to trimmed cell values
type csvRow map[string]string

func (r csvRow) get(col string) string { return r[col] }

func (r csvRow) getOr(col, fallback string) string {
	if v := r[col]; v != "" {
		return v
	}
	return fallback
}

// read parses <Dir>/<table>.csv. Header names are matched case-insensitively
// and unknown columns are ignored; each required column must be present.
func (l *CSVLoader) read(ctx context.Context, table string, required ...string) ([]csvRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewContextCancelled("load "+table, err)
	}

	f, err := os.Open(filepath.Join(l.Dir, table+".csv"))
	if err != nil {
		return nil, apperrors.NewLoadFailed(l.Name(), table, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// A file with no header is an empty table
			return nil, nil
		}
		return nil, apperrors.NewLoadFailed(l.Name(), table, err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	for _, col := range required {
		if !slices.Contains(header, col) {
			return nil, apperrors.NewTableMalformed(table, 0, col)
		}
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewLoadFailed(l.Name(), table, err)
		}
		row := make(csvRow, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseYear accepts "2005" and the "2005.0" form some exporters write
func parseYear(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
