// Package assembler turns query engine results into the bounded text context
// handed to the answer generator.
package assembler

import (
	"fmt"
	"strconv"
	"strings"

	"fundrag/backend/internal/knowledge"
	"fundrag/backend/internal/query"
	"fundrag/backend/internal/resolver"
	"fundrag/backend/pkg/logger"
	"go.uber.org/zap"
)

// Sentinel contexts. Callers detect them with IsEmptyResult and skip
// generation when one is present.
const (
	NoFundsFound  = "No funds found matching the criteria."
	NoInformation = "No specific information found in the knowledge base for this query."
)

// Unresolved is the context for unknown and data-unavailable intents
const Unresolved = "Could not process the query due to unknown intent or data issues."

// MaxListed is the number of funds summarized in a set context
const MaxListed = 5

// IsEmptyResult reports whether text carries one of the empty-result sentinels
func IsEmptyResult(text string) bool {
	return strings.Contains(text, NoFundsFound) || strings.Contains(text, NoInformation)
}

// Context is the assembled text plus an optional one-sentence explanation
type Context struct {
	Text        string `json:"context"`
	Explanation string `json:"explanation,omitempty"`
}

// HasExplanation reports whether an explanation was produced
func (c Context) HasExplanation() bool { return c.Explanation != "" }

// Assembler formats engine results for one resolved query
type Assembler struct {
	engine *query.Engine
	logger *zap.Logger
}

// New creates an assembler reading from engine
func New(engine *query.Engine) *Assembler {
	return &Assembler{engine: engine, logger: logger.Named("assembler")}
}

// Assemble builds the context for res. It never panics: a failure while
// formatting is reported inside the returned text with no explanation.
func (a *Assembler) Assemble(res resolver.Resolution) (ctx Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Context assembly failed",
				zap.String("intent", string(res.Intent)),
				zap.String("entity_id", res.Entity.ID),
				zap.Any("panic", r),
			)
			ctx = Context{Text: fmt.Sprintf("An error occurred while retrieving information: %v", r)}
		}
	}()

	ctx = a.assemble(res)
	ctx.Text = strings.TrimSpace(ctx.Text)
	ctx.Explanation = strings.TrimSpace(ctx.Explanation)
	return ctx
}

func (a *Assembler) assemble(res resolver.Resolution) Context {
	id := res.Entity.ID

	switch res.Intent {
	case resolver.IntentFundDetails:
		if d, ok := a.engine.FundDetails(id).Get(); ok {
			return Context{Text: formatFund(d)}
		}
	case resolver.IntentAMCDetails:
		if amc, ok := a.engine.AMCDetails(id).Get(); ok {
			return Context{Text: formatAMC(amc)}
		}
	case resolver.IntentSectorDetails:
		if sec, ok := a.engine.SectorDetails(id).Get(); ok {
			return Context{Text: formatSector(sec)}
		}
	case resolver.IntentFactorDetails:
		if f, ok := a.engine.FactorDetails(id).Get(); ok {
			return Context{Text: formatFactor(f)}
		}

	case resolver.IntentFundsByAMC:
		name := id
		if amc, ok := a.engine.AMCDetails(id).Get(); ok {
			name = amc.Name
		}
		return Context{Text: formatFundList(a.engine.FundsByAMC(id), "managed by "+name)}
	case resolver.IntentFundsBySector:
		return Context{Text: formatFundList(a.engine.FundsBySector(id), fmt.Sprintf("investing in the %s sector", a.sectorName(id)))}
	case resolver.IntentFundsByRisk:
		return Context{Text: formatFundList(a.engine.FundsByRisk(id), fmt.Sprintf("with '%s' risk level", id))}
	case resolver.IntentFundsByFactor:
		return a.fundsByFactor(id)

	case resolver.IntentUnknown, resolver.IntentDataUnavailable:
		return Context{Text: Unresolved}
	default:
		return Context{Text: fmt.Sprintf("Internal Error: Unhandled intent '%s'.", res.Intent)}
	}
	return Context{Text: NoInformation}
}

func (a *Assembler) fundsByFactor(factorID string) Context {
	funds := a.engine.FundsByFactor(factorID)

	name := factorID
	var affected []string
	if f, ok := a.engine.FactorDetails(factorID).Get(); ok {
		name = f.Name
		for _, s := range f.AffectedSectors {
			affected = append(affected, a.sectorName(s))
		}
	}

	ctx := Context{Text: formatFundList(funds, fmt.Sprintf("potentially affected by '%s'", name))}
	if len(funds) == 0 {
		return ctx
	}

	// Only the first fund is used as the worked example
	sectors := strings.Join(affected, ", ")
	if sectors == "" {
		sectors = "specific sectors"
	}
	example := funds[0]
	ctx.Explanation = fmt.Sprintf(
		"Reasoning: The factor '%s' often affects sectors like %s. '%s' is potentially affected because it invests in '%s'.",
		name, sectors, example.Name, a.sectorName(example.PrimarySector),
	)
	return ctx
}

func (a *Assembler) sectorName(id string) string {
	if sec, ok := a.engine.SectorDetails(id).Get(); ok && sec.Name != "" {
		return sec.Name
	}
	return id
}

// ============================================================================
// Formatting
// ============================================================================

// lines accumulates "Label: value" lines, skipping empty values
type lines struct {
	b strings.Builder
}

func (l *lines) add(label, value string) {
	if value == "" {
		return
	}
	l.b.WriteString(label)
	l.b.WriteString(": ")
	l.b.WriteString(value)
	l.b.WriteByte('\n')
}

func (l *lines) raw(s string) {
	l.b.WriteString(s)
	l.b.WriteByte('\n')
}

func (l *lines) String() string { return l.b.String() }

func formatFund(d query.FundDetails) string {
	var l lines
	l.raw(fmt.Sprintf("Fund Name: %s (ID: %s)", d.Name, d.ID))
	manager := d.AMCID
	if d.AMCName != "" {
		manager = fmt.Sprintf("%s (%s)", d.AMCName, d.AMCID)
	}
	l.add("Managed by", manager)
	l.add("Risk Level", d.Risk)
	l.add("Primary Sector", d.PrimarySector)
	l.add("Other Sectors", strings.Join(d.SecondarySectors, ", "))
	l.add("Directly Related Factors", strings.Join(d.RelatedFactors, ", "))
	l.add("Description", d.Description)
	return l.String()
}

func formatAMC(amc knowledge.AMC) string {
	var l lines
	l.raw(fmt.Sprintf("AMC Details for %s:", amc.ID))
	l.add("- Name", amc.Name)
	if amc.Established > 0 {
		l.add("- Established", strconv.Itoa(amc.Established))
	}
	l.add("- AUM Group", amc.AUMGroup)
	return l.String()
}

func formatSector(sec knowledge.Sector) string {
	var l lines
	l.raw(fmt.Sprintf("Sector Details for %s:", sec.Name))
	l.add("- Description", sec.Description)
	l.add("- Sensitivity Notes", sec.SensitivityNotes)
	return l.String()
}

func formatFactor(f query.FactorDetails) string {
	var l lines
	l.raw(fmt.Sprintf("Factor Details for %s:", f.Name))
	l.add("- Description", f.Description)
	l.add("- Typical Impact Direction", f.ImpactDirection)
	l.add("- Typically Affected Sectors", strings.Join(f.AffectedSectors, ", "))
	return l.String()
}

func formatFundList(funds []knowledge.Fund, predicate string) string {
	if len(funds) == 0 {
		return NoFundsFound
	}
	var l lines
	l.raw(fmt.Sprintf("Found %d fund(s) %s:", len(funds), predicate))
	for i, f := range funds {
		if i == MaxListed {
			l.raw(fmt.Sprintf("...and %d more.", len(funds)-MaxListed))
			break
		}
		l.raw(fmt.Sprintf("- %s (Risk: %s, Primary Sector: %s, AMC: %s)", f.Name, f.Risk, f.PrimarySector, f.AMCID))
	}
	return l.String()
}
