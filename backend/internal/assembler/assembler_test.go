package assembler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundrag/backend/internal/knowledge"
	"fundrag/backend/internal/knowledge/knowledgetest"
	"fundrag/backend/internal/query"
	"fundrag/backend/internal/resolver"
)

func sample() (*Assembler, *resolver.Resolver) {
	snap := knowledgetest.SampleSnapshot()
	return New(query.NewEngine(snap)), resolver.New(snap)
}

func ref(intent resolver.Intent, kind resolver.EntityKind, id string) resolver.Resolution {
	return resolver.Resolution{Intent: intent, Entity: resolver.EntityRef{Kind: kind, ID: id}}
}

func TestAssemble_FundDetails(t *testing.T) {
	a, r := sample()

	ctx := a.Assemble(r.Resolve("Tell me about FundC Infrastructure"))
	want := strings.Join([]string{
		"Fund Name: FundC Infrastructure (ID: F003)",
		"Managed by: Alpha Management Corp (AMC_X)",
		"Risk Level: Medium",
		"Primary Sector: Infrastructure",
		"Other Sectors: Energy, Construction Materials",
		"Directly Related Factors: Government Spending, Crude Oil Price, Interest Rates",
		"Description: Focuses on companies involved in infrastructure development and related sectors like energy.",
	}, "\n")
	assert.Equal(t, want, ctx.Text)
	assert.False(t, ctx.HasExplanation())
}

func TestAssemble_DetailOmitsAbsentAttributes(t *testing.T) {
	snap := knowledge.Build(&knowledge.Tables{
		Funds:   []knowledge.Fund{{ID: "F1", Name: "Bare Fund", AMCID: "A9", Risk: "Low", PrimarySector: "S1"}},
		AMCs:    []knowledge.AMC{{ID: "A1", Name: "Only Name"}},
		Factors: []knowledge.Factor{{ID: "X", Name: "X"}},
	}, "test")
	a := New(query.NewEngine(snap))

	ctx := a.Assemble(ref(resolver.IntentFundDetails, resolver.KindFund, "F1"))
	assert.Equal(t, "Fund Name: Bare Fund (ID: F1)\nManaged by: A9\nRisk Level: Low\nPrimary Sector: S1", ctx.Text)

	ctx = a.Assemble(ref(resolver.IntentAMCDetails, resolver.KindAMC, "A1"))
	assert.Equal(t, "AMC Details for A1:\n- Name: Only Name", ctx.Text)

	ctx = a.Assemble(ref(resolver.IntentFactorDetails, resolver.KindFactor, "X"))
	assert.Equal(t, "Factor Details for X:", ctx.Text)
}

func TestAssemble_OtherDetails(t *testing.T) {
	a, _ := sample()

	ctx := a.Assemble(ref(resolver.IntentAMCDetails, resolver.KindAMC, "AMC_X"))
	assert.Equal(t, "AMC Details for AMC_X:\n- Name: Alpha Management Corp\n- Established: 2005\n- AUM Group: Large", ctx.Text)

	ctx = a.Assemble(ref(resolver.IntentSectorDetails, resolver.KindSector, "Chemicals"))
	assert.Equal(t, "Sector Details for Chemicals:\n- Description: Industrial and specialty chemicals.\n"+
		"- Sensitivity Notes: Sensitive to Crude Oil Price (feedstock), industrial demand.", ctx.Text)

	ctx = a.Assemble(ref(resolver.IntentFactorDetails, resolver.KindFactor, "Government Spending"))
	assert.Contains(t, ctx.Text, "Factor Details for Government Spending:")
	assert.Contains(t, ctx.Text, "- Typical Impact Direction: Positive for related sectors.")
	assert.Contains(t, ctx.Text, "- Typically Affected Sectors: Infrastructure, Construction Materials")
	assert.False(t, ctx.HasExplanation())
}

func TestAssemble_PointMiss(t *testing.T) {
	a, _ := sample()

	for _, res := range []resolver.Resolution{
		ref(resolver.IntentFundDetails, resolver.KindFund, "F404"),
		ref(resolver.IntentAMCDetails, resolver.KindAMC, "AMC_Q"),
		ref(resolver.IntentSectorDetails, resolver.KindSector, "Automotive"),
		ref(resolver.IntentFactorDetails, resolver.KindFactor, "Tariffs"),
	} {
		ctx := a.Assemble(res)
		assert.Equal(t, NoInformation, ctx.Text, res.Intent)
		assert.True(t, IsEmptyResult(ctx.Text))
	}
}

func TestAssemble_FundsByFactor(t *testing.T) {
	a, r := sample()

	ctx := a.Assemble(r.Resolve("Which funds are affected by Crude Oil Price?"))
	want := strings.Join([]string{
		"Found 3 fund(s) potentially affected by 'Crude Oil Price':",
		"- FundB Balanced (Risk: Medium, Primary Sector: Diversified, AMC: AMC_Y)",
		"- FundC Infrastructure (Risk: Medium, Primary Sector: Infrastructure, AMC: AMC_X)",
		"- FundD Energy Focus (Risk: High, Primary Sector: Energy, AMC: AMC_Z)",
	}, "\n")
	assert.Equal(t, want, ctx.Text)

	require.True(t, ctx.HasExplanation())
	assert.Equal(t, "Reasoning: The factor 'Crude Oil Price' often affects sectors like Energy, Chemicals, "+
		"Infrastructure, Consumer Goods. 'FundB Balanced' is potentially affected because it invests in 'Diversified'.",
		ctx.Explanation)
}

func TestAssemble_FundsByFactor_NoAffectedSectors(t *testing.T) {
	snap := knowledge.Build(&knowledge.Tables{
		Funds:              []knowledge.Fund{{ID: "F1", Name: "Solo", Risk: "Low", PrimarySector: "S1"}},
		Factors:            []knowledge.Factor{{ID: "X", Name: "Tariffs"}},
		FundRelatedFactors: []knowledge.FundFactorLink{{FundID: "F1", FactorID: "X"}},
	}, "test")
	a := New(query.NewEngine(snap))

	ctx := a.Assemble(ref(resolver.IntentFundsByFactor, resolver.KindFactor, "X"))
	assert.Equal(t, "Reasoning: The factor 'Tariffs' often affects sectors like specific sectors. "+
		"'Solo' is potentially affected because it invests in 'S1'.", ctx.Explanation)
}

func TestAssemble_EmptySets(t *testing.T) {
	a, _ := sample()

	for _, res := range []resolver.Resolution{
		ref(resolver.IntentFundsByRisk, resolver.KindRisk, "Low"),
		ref(resolver.IntentFundsByAMC, resolver.KindAMC, "AMC_Q"),
		ref(resolver.IntentFundsBySector, resolver.KindSector, "Automotive"),
		ref(resolver.IntentFundsByFactor, resolver.KindFactor, "Tariffs"),
	} {
		ctx := a.Assemble(res)
		assert.Equal(t, NoFundsFound, ctx.Text, res.Intent)
		assert.False(t, ctx.HasExplanation())
		assert.True(t, IsEmptyResult(ctx.Text))
	}
}

func TestAssemble_SetHeaders(t *testing.T) {
	a, _ := sample()

	ctx := a.Assemble(ref(resolver.IntentFundsByAMC, resolver.KindAMC, "AMC_X"))
	assert.True(t, strings.HasPrefix(ctx.Text, "Found 2 fund(s) managed by Alpha Management Corp:"), ctx.Text)

	ctx = a.Assemble(ref(resolver.IntentFundsBySector, resolver.KindSector, "Energy"))
	assert.True(t, strings.HasPrefix(ctx.Text, "Found 2 fund(s) investing in the Energy sector:"), ctx.Text)
	assert.False(t, ctx.HasExplanation())
}

func TestAssemble_FundsByRisk_Truncates(t *testing.T) {
	snap := knowledge.Build(knowledgetest.WithExtraFunds(7, "AMC_Z", "Energy", "high"), "test")
	a := New(query.NewEngine(snap))

	ctx := a.Assemble(resolver.New(snap).Resolve("Find high risk funds"))
	lines := strings.Split(ctx.Text, "\n")

	assert.Equal(t, "Found 9 fund(s) with 'High' risk level:", lines[0])
	require.Len(t, lines, 1+MaxListed+1)
	for _, l := range lines[1 : 1+MaxListed] {
		assert.True(t, strings.HasPrefix(l, "- "), l)
		assert.Contains(t, strings.ToLower(l), "risk: high")
	}
	assert.Equal(t, "...and 4 more.", lines[len(lines)-1])
}

func TestAssemble_ExactlyMaxListed(t *testing.T) {
	snap := knowledge.Build(knowledgetest.WithExtraFunds(3, "AMC_Z", "Energy", "High"), "test")
	a := New(query.NewEngine(snap))

	ctx := a.Assemble(ref(resolver.IntentFundsByRisk, resolver.KindRisk, "High"))
	assert.NotContains(t, ctx.Text, "more.")
	assert.Len(t, strings.Split(ctx.Text, "\n"), 1+MaxListed)
}

func TestAssemble_Unresolved(t *testing.T) {
	a, r := sample()

	assert.Equal(t, Context{Text: Unresolved}, a.Assemble(r.Resolve("asdkjasd unrelated text")))
	assert.Equal(t, Context{Text: Unresolved}, a.Assemble(resolver.Resolution{Intent: resolver.IntentDataUnavailable}))
	assert.Equal(t, "Internal Error: Unhandled intent 'bogus'.", a.Assemble(resolver.Resolution{Intent: "bogus"}).Text)
}

func TestAssemble_RecoversFromFailure(t *testing.T) {
	a := New(nil)

	var ctx Context
	assert.NotPanics(t, func() {
		ctx = a.Assemble(ref(resolver.IntentFundsByFactor, resolver.KindFactor, "Crude Oil Price"))
	})
	assert.True(t, strings.HasPrefix(ctx.Text, "An error occurred while retrieving information:"), ctx.Text)
	assert.False(t, ctx.HasExplanation())
}

func TestIsEmptyResult(t *testing.T) {
	assert.True(t, IsEmptyResult(NoFundsFound))
	assert.True(t, IsEmptyResult("prefix "+NoInformation))
	assert.False(t, IsEmptyResult("Found 1 fund(s) with 'High' risk level:"))
	assert.False(t, IsEmptyResult(""))
}
