package knowledge_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundrag/backend/internal/knowledge"
	"fundrag/backend/internal/knowledge/knowledgetest"
	apperrors "fundrag/backend/pkg/errors"
)

// dataDir points at the sample knowledge base shipped with the repository
const dataDir = "../../data"

func TestBuild_IndexesSample(t *testing.T) {
	snap := knowledgetest.SampleSnapshot()

	counts := snap.Counts()
	assert.Equal(t, 4, counts[knowledge.TableFunds])
	assert.Equal(t, 3, counts[knowledge.TableAMCs])
	assert.Equal(t, 9, counts[knowledge.TableSectors])
	assert.Equal(t, 8, counts[knowledge.TableFactors])
	assert.Equal(t, 16, counts[knowledge.TableFactorAffectedSectors], "Automotive link is dangling")
	assert.Equal(t, 1, snap.DroppedLinks())

	fund, ok := snap.Fund("F003")
	require.True(t, ok)
	assert.Equal(t, "FundC Infrastructure", fund.Name)

	_, ok = snap.Fund("FundC_Infra")
	assert.False(t, ok, "lookups are by fund id, not legacy key")

	assert.Equal(t, []string{"Energy", "Construction Materials"}, snap.SecondarySectors("F003"))
	assert.Equal(t, []string{"F003", "F004"}, snap.FundsRelatedToFactor("Crude Oil Price"))
	assert.Equal(t, []string{"Technology"}, snap.AffectedSectors("Chip Shortage"))
	assert.Empty(t, snap.AffectedSectors("Unknown Factor"))
}

func TestBuild_DropsDanglingAndDuplicateRows(t *testing.T) {
	tables := &knowledge.Tables{
		Funds: []knowledge.Fund{
			{ID: "F1", Name: "One"},
			{ID: "F1", Name: "One again"},
			{ID: "", Name: "Blank"},
		},
		Sectors: []knowledge.Sector{{ID: "S1", Name: "Sector One"}},
		FundSecondarySectors: []knowledge.FundSectorLink{
			{FundID: "F1", SectorID: "S1"},
			{FundID: "F1", SectorID: "S1"},
			{FundID: "F1", SectorID: "missing"},
			{FundID: "missing", SectorID: "S1"},
		},
	}
	snap := knowledge.Build(tables, "test")

	fund, ok := snap.Fund("F1")
	require.True(t, ok)
	assert.Equal(t, "One", fund.Name, "first row wins")
	assert.Len(t, snap.Funds(), 1)
	assert.Equal(t, []string{"S1"}, snap.SecondarySectors("F1"))
	assert.Equal(t, 3, snap.DroppedLinks())
}

func TestSnapshot_Empty(t *testing.T) {
	var nilSnap *knowledge.Snapshot
	assert.True(t, nilSnap.Empty())
	assert.True(t, knowledge.Build(nil, "test").Empty())
	assert.True(t, knowledge.Build(&knowledge.Tables{
		FundSecondarySectors: []knowledge.FundSectorLink{{FundID: "a", SectorID: "b"}},
	}, "test").Empty())
	assert.False(t, knowledgetest.SampleSnapshot().Empty())
}

func TestSnapshot_AccessorsReturnCopies(t *testing.T) {
	snap := knowledgetest.SampleSnapshot()

	funds := snap.Funds()
	funds[0].Name = "mutated"
	secondary := snap.SecondarySectors("F002")
	secondary[0] = "mutated"

	fund, _ := snap.Fund(funds[0].ID)
	assert.Equal(t, "FundA Growth", fund.Name)
	assert.Equal(t, "Finance", snap.SecondarySectors("F002")[0])
}

func TestSnapshot_Terms(t *testing.T) {
	snap := knowledgetest.SampleSnapshot()

	amc := snap.AMCTerms()[0]
	assert.Equal(t, "AMC_X", amc.ID)
	assert.Equal(t, []string{"alpha management corp", "amc_x"}, amc.Needles)

	// Sector name equals id, so a single needle is kept
	assert.Equal(t, []string{"technology"}, snap.SectorTerms()[0].Needles)
	assert.Equal(t, []string{"crude oil price"}, snap.FactorTerms()[0].Needles)
}

func TestRiskLevel(t *testing.T) {
	lvl, ok := knowledge.ParseRiskLevel(" hIgH ")
	require.True(t, ok)
	assert.Equal(t, knowledge.RiskHigh, lvl)
	assert.True(t, knowledge.RiskMedium.Matches("MEDIUM"))
	assert.False(t, knowledge.RiskLow.Matches("lowish"))

	_, ok = knowledge.ParseRiskLevel("extreme")
	assert.False(t, ok)

	group, ok := knowledge.ParseAUMGroup("large")
	require.True(t, ok)
	assert.Equal(t, knowledge.AUMLarge, group)
}

func TestCSVLoader_LoadsSampleData(t *testing.T) {
	tables, err := knowledge.NewCSVLoader(dataDir).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, knowledgetest.SampleTables(), tables)
}

func TestYAMLLoader_MatchesCSV(t *testing.T) {
	fromYAML, err := knowledge.NewYAMLLoader(filepath.Join(dataDir, "knowledge_base.yaml")).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, knowledgetest.SampleTables(), fromYAML)
}

func TestCSVLoader_MissingFile(t *testing.T) {
	_, err := knowledge.NewCSVLoader(t.TempDir()).Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeKnowledge))
}

func TestCSVLoader_MissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		knowledge.TableAMCs, knowledge.TableSectors, knowledge.TableFactors,
		knowledge.TableFundSecondarySectors, knowledge.TableFundRelatedFactors, knowledge.TableFactorAffectedSectors,
	} {
		copyFile(t, filepath.Join(dataDir, name+".csv"), filepath.Join(dir, name+".csv"))
	}
	writeFile(t, filepath.Join(dir, "funds.csv"), "id,name\nF1,One\n")

	_, err := knowledge.NewCSVLoader(dir).Load(context.Background())
	var malformed *apperrors.ErrTableMalformed
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, knowledge.TableFunds, malformed.Table)
	assert.Equal(t, "fund_id", malformed.Field)
}

func TestCSVLoader_HeaderVariants(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		knowledge.TableFunds, knowledge.TableSectors, knowledge.TableFactors,
		knowledge.TableFundSecondarySectors, knowledge.TableFundRelatedFactors, knowledge.TableFactorAffectedSectors,
	} {
		copyFile(t, filepath.Join(dataDir, name+".csv"), filepath.Join(dir, name+".csv"))
	}
	// Upper-case header, BOM, float year and an extra column
	writeFile(t, filepath.Join(dir, "amcs.csv"), "\ufeffAMC_ID,Name,Established,AUM_Group,Notes\nAMC_X,Alpha,2005.0,Large,extra\n")

	tables, err := knowledge.NewCSVLoader(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, tables.AMCs, 1)
	assert.Equal(t, knowledge.AMC{ID: "AMC_X", Name: "Alpha", Established: 2005, AUMGroup: "Large"}, tables.AMCs[0])
}

func TestDecodeYAML_FundIDFallsBackToKey(t *testing.T) {
	doc := `
funds:
  F9:
    name: Nine
    secondary_sectors: [S1]
sectors:
  S1: {}
`
	tables, err := knowledge.DecodeYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, tables.Funds, 1)
	assert.Equal(t, "F9", tables.Funds[0].ID)
	assert.Equal(t, "S1", tables.Sectors[0].Name)
	assert.Equal(t, []knowledge.FundSectorLink{{FundID: "F9", SectorID: "S1"}}, tables.FundSecondarySectors)
}

func TestDecodeYAML_Malformed(t *testing.T) {
	_, err := knowledge.DecodeYAML(strings.NewReader("funds: [1, 2]"))
	assert.Error(t, err)

	_, err = knowledge.DecodeYAML(strings.NewReader("funds:\n  F1:\n    risk: High\n"))
	var malformed *apperrors.ErrTableMalformed
	assert.ErrorAs(t, err, &malformed)
}

type stubLoader struct {
	tables *knowledge.Tables
	err    error
}

func (s stubLoader) Name() string { return "stub" }

func (s stubLoader) Load(ctx context.Context) (*knowledge.Tables, error) {
	return s.tables, s.err
}

func TestStore_Reload(t *testing.T) {
	st := knowledge.NewStore()
	assert.Nil(t, st.Current())

	snap, err := st.Reload(context.Background(), stubLoader{tables: knowledgetest.SampleTables()})
	require.NoError(t, err)
	assert.Same(t, snap, st.Current())
	assert.Equal(t, "stub", st.Current().Source())

	// A failed load keeps the previous snapshot
	_, err = st.Reload(context.Background(), stubLoader{err: assert.AnError})
	require.Error(t, err)
	assert.Same(t, snap, st.Current())

	// An empty load is refused
	_, err = st.Reload(context.Background(), stubLoader{tables: &knowledge.Tables{}})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeKnowledge))
	assert.Same(t, snap, st.Current())
}

func TestStore_ConcurrentReadersDuringSwap(t *testing.T) {
	st := knowledge.NewStoreWith(knowledgetest.SampleSnapshot())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := st.Current()
				_, ok := snap.Fund("F001")
				assert.True(t, ok)
			}
		}()
	}
	for j := 0; j < 50; j++ {
		st.Swap(knowledgetest.SampleSnapshot())
	}
	wg.Wait()
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	b, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, b, 0o644))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
