package domain

import "strings"

// Lens is an analytical perspective used when no domain template fits.
type Lens string

const (
	LensDisciplinary Lens = "disciplinary"
	LensStakeholder  Lens = "stakeholder"
	LensSystem       Lens = "system"
	LensTemporal     Lens = "temporal"
	LensScale        Lens = "scale"
)

// ProblemType is the detected shape of the question, which fixes the
// logical order of the key line and the SCQA complication.
type ProblemType struct {
	Name         string `json:"name"`
	LogicalOrder string `json:"logical_order"`
	Complication string `json:"complication"`
}

// Lenses returns the lenses whose indicator words appear in the brief, in
// table order. With no indicators present, the domain's defaults apply.
func (c *Classifier) Lenses(brief string, d Domain) []Lens {
	lower := strings.ToLower(brief)
	var lenses []Lens
	for _, rule := range c.tables.Lenses {
		if containsAny(lower, rule.Indicators) {
			lenses = append(lenses, Lens(rule.Name))
		}
	}
	if len(lenses) > 0 {
		return lenses
	}

	defaults, ok := c.tables.DefaultLenses[string(d)]
	if !ok {
		defaults = c.tables.DefaultLenses["default"]
	}
	for _, name := range defaults {
		lenses = append(lenses, Lens(name))
	}
	return lenses
}

// ProblemType returns the first problem-type rule with a keyword in the brief.
func (c *Classifier) ProblemType(brief string) ProblemType {
	lower := strings.ToLower(brief)
	for _, rule := range c.tables.ProblemTypes {
		if containsAny(lower, rule.Keywords) {
			return ProblemType{Name: rule.Name, LogicalOrder: rule.LogicalOrder, Complication: rule.Complication}
		}
	}
	d := c.tables.DefaultProblemType
	return ProblemType{Name: d.Name, LogicalOrder: d.LogicalOrder, Complication: d.Complication}
}
