// Package knowledgetest provides knowledge base fixtures for tests.
package knowledgetest

import (
	"fmt"

	"fundrag/backend/internal/knowledge"
)

// SampleTables returns the four-fund sample knowledge base shipped in
// backend/data, as tables. Each call returns fresh slices.
func SampleTables() *knowledge.Tables {
	return &knowledge.Tables{
		Funds: []knowledge.Fund{
			{ID: "F001", Key: "FundA_Growth", Name: "FundA Growth", AMCID: "AMC_X", Risk: "High", PrimarySector: "Technology",
				Description: "Aggressively invests in high-growth technology stocks and some finance."},
			{ID: "F002", Key: "FundB_Balanced", Name: "FundB Balanced", AMCID: "AMC_Y", Risk: "Medium", PrimarySector: "Diversified",
				Description: "A balanced fund aiming for steady growth across various sectors."},
			{ID: "F003", Key: "FundC_Infra", Name: "FundC Infrastructure", AMCID: "AMC_X", Risk: "Medium", PrimarySector: "Infrastructure",
				Description: "Focuses on companies involved in infrastructure development and related sectors like energy."},
			{ID: "F004", Key: "FundD_Energy", Name: "FundD Energy Focus", AMCID: "AMC_Z", Risk: "High", PrimarySector: "Energy",
				Description: "Concentrated investments in the energy sector, sensitive to oil prices."},
		},
		AMCs: []knowledge.AMC{
			{ID: "AMC_X", Name: "Alpha Management Corp", Established: 2005, AUMGroup: "Large"},
			{ID: "AMC_Y", Name: "Beta Investments", Established: 2010, AUMGroup: "Medium"},
			{ID: "AMC_Z", Name: "Zenith Capital", Established: 2015, AUMGroup: "Small"},
		},
		Sectors: []knowledge.Sector{
			{ID: "Technology", Name: "Technology", Description: "Companies involved in software, hardware, internet services.", SensitivityNotes: "Sensitive to interest rates, innovation cycles."},
			{ID: "Finance", Name: "Finance", Description: "Banks, insurance companies, financial services.", SensitivityNotes: "Sensitive to interest rates, regulations."},
			{ID: "Healthcare", Name: "Healthcare", Description: "Pharmaceuticals, hospitals, medical devices.", SensitivityNotes: "Sensitive to regulations, R&D success."},
			{ID: "Infrastructure", Name: "Infrastructure", Description: "Construction, utilities, transportation infrastructure.", SensitivityNotes: "Sensitive to government spending, interest rates, commodity prices (like oil for transport)."},
			{ID: "Energy", Name: "Energy", Description: "Oil & gas exploration, production, refineries, power generation.", SensitivityNotes: "Highly sensitive to Crude Oil Price, geopolitical events, environmental regulations."},
			{ID: "Consumer Goods", Name: "Consumer Goods", Description: "Companies making everyday products.", SensitivityNotes: "Sensitive to inflation, consumer spending."},
			{ID: "Construction Materials", Name: "Construction Materials", Description: "Cement, steel for construction.", SensitivityNotes: "Sensitive to infrastructure spending, housing market."},
			{ID: "Chemicals", Name: "Chemicals", Description: "Industrial and specialty chemicals.", SensitivityNotes: "Sensitive to Crude Oil Price (feedstock), industrial demand."},
			{ID: "Diversified", Name: "Diversified", Description: "Invests across many sectors, no single dominant one.", SensitivityNotes: "Reflects broad market trends."},
		},
		Factors: []knowledge.Factor{
			{ID: "Crude Oil Price", Name: "Crude Oil Price", Description: "The global price of crude oil.", ImpactDirection: "Varies"},
			{ID: "Interest Rates", Name: "Interest Rates", Description: "Central bank policy rates.", ImpactDirection: "Rising rates often negative for growth stocks/tech, positive for banks."},
			{ID: "Inflation", Name: "Inflation", Description: "Rate of increase in prices.", ImpactDirection: "Affects consumer spending, input costs."},
			{ID: "GDP Growth", Name: "GDP Growth", Description: "Overall economic growth.", ImpactDirection: "Positive for most sectors."},
			{ID: "Chip Shortage", Name: "Chip Shortage", Description: "Supply constraint for semiconductors.", ImpactDirection: "Negative for users, positive for producers."},
			{ID: "Government Spending", Name: "Government Spending", Description: "Public expenditure, especially on infrastructure.", ImpactDirection: "Positive for related sectors."},
			{ID: "Geopolitical Tension", Name: "Geopolitical Tension", Description: "International conflicts or instability.", ImpactDirection: "Often drives oil prices, uncertainty."},
			{ID: "Renewable Policy", Name: "Renewable Policy", Description: "Government policies favouring renewable energy.", ImpactDirection: "Positive for renewables, potentially negative for fossil fuels."},
		},
		FundSecondarySectors: []knowledge.FundSectorLink{
			{FundID: "F001", SectorID: "Finance"},
			{FundID: "F002", SectorID: "Finance"},
			{FundID: "F002", SectorID: "Healthcare"},
			{FundID: "F002", SectorID: "Consumer Goods"},
			{FundID: "F003", SectorID: "Energy"},
			{FundID: "F003", SectorID: "Construction Materials"},
			{FundID: "F004", SectorID: "Chemicals"},
		},
		FundRelatedFactors: []knowledge.FundFactorLink{
			{FundID: "F001", FactorID: "Interest Rates"},
			{FundID: "F001", FactorID: "Chip Shortage"},
			{FundID: "F002", FactorID: "Inflation"},
			{FundID: "F002", FactorID: "GDP Growth"},
			{FundID: "F003", FactorID: "Government Spending"},
			{FundID: "F003", FactorID: "Crude Oil Price"},
			{FundID: "F003", FactorID: "Interest Rates"},
			{FundID: "F004", FactorID: "Crude Oil Price"},
			{FundID: "F004", FactorID: "Geopolitical Tension"},
			{FundID: "F004", FactorID: "Renewable Policy"},
		},
		FactorAffectedSectors: []knowledge.FactorSectorLink{
			{FactorID: "Crude Oil Price", SectorID: "Energy"},
			{FactorID: "Crude Oil Price", SectorID: "Chemicals"},
			{FactorID: "Crude Oil Price", SectorID: "Infrastructure"},
			{FactorID: "Crude Oil Price", SectorID: "Consumer Goods"},
			{FactorID: "Interest Rates", SectorID: "Technology"},
			{FactorID: "Interest Rates", SectorID: "Finance"},
			{FactorID: "Interest Rates", SectorID: "Infrastructure"},
			{FactorID: "Inflation", SectorID: "Consumer Goods"},
			{FactorID: "Inflation", SectorID: "Diversified"},
			{FactorID: "GDP Growth", SectorID: "Diversified"},
			{FactorID: "GDP Growth", SectorID: "Finance"},
			{FactorID: "Chip Shortage", SectorID: "Technology"},
			{FactorID: "Chip Shortage", SectorID: "Automotive"}, // no Automotive sector row
			{FactorID: "Government Spending", SectorID: "Infrastructure"},
			{FactorID: "Government Spending", SectorID: "Construction Materials"},
			{FactorID: "Geopolitical Tension", SectorID: "Energy"},
			{FactorID: "Renewable Policy", SectorID: "Energy"},
		},
	}
}

// SampleSnapshot builds the sample tables into a snapshot
func SampleSnapshot() *knowledge.Snapshot {
	return knowledge.Build(SampleTables(), "test")
}

// WithExtraFunds returns the sample tables plus n synthetic funds managed by
// amcID with primary sector sectorID and the given risk. Ids are X001..Xnnn.
func WithExtraFunds(n int, amcID, sectorID, risk string) *knowledge.Tables {
	t := SampleTables()
	for i := 1; i <= n; i++ {
		t.Funds = append(t.Funds, knowledge.Fund{
			ID:            fmt.Sprintf("X%03d", i),
			Name:          fmt.Sprintf("Synthetic Fund %03d", i),
			AMCID:         amcID,
			Risk:          risk,
			PrimarySector: sectorID,
		})
	}
	return t
}
