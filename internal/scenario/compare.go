package scenario

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/common"
)

// Canonical comparison rows, in display order.
const (
	LabelIncomeTax        = "Income Tax"
	LabelSocialEmployee   = "Social Security - Employee"
	LabelSocialEmployer   = "Social Security - Employer"
	LabelPEAdministration = "PE Administration"
	LabelHousing          = "Housing Allowance"
	LabelEducation        = "Education Allowance"
	LabelOther            = "Other"
)

// CanonicalLabels lists every comparison row in display order.
var CanonicalLabels = []string{
	LabelIncomeTax,
	LabelSocialEmployee,
	LabelSocialEmployer,
	LabelPEAdministration,
	LabelHousing,
	LabelEducation,
	LabelOther,
}

var labelVariants = map[string]string{
	"income tax":               LabelIncomeTax,
	"ganancias":                LabelIncomeTax,
	"irpf":                     LabelIncomeTax,
	"einkommensteuer":          LabelIncomeTax,
	"impuesto a las ganancias": LabelIncomeTax,
	"personal income tax":      LabelIncomeTax,

	"social security - employee": LabelSocialEmployee,
	"social security employee":   LabelSocialEmployee,
	"employee social security":   LabelSocialEmployee,
	"aportes employee":           LabelSocialEmployee,
	"employee contributions":     LabelSocialEmployee,

	"social security - employer": LabelSocialEmployer,
	"social security employer":   LabelSocialEmployer,
	"employer social security":   LabelSocialEmployer,
	"contribuciones employer":    LabelSocialEmployer,
	"employer contributions":     LabelSocialEmployer,

	"pe administration":              LabelPEAdministration,
	"pe administration / compliance": LabelPEAdministration,
	"permanent establishment":        LabelPEAdministration,
	"pe admin":                       LabelPEAdministration,
	"pe setup":                       LabelPEAdministration,

	"housing allowance": LabelHousing,
	"housing":           LabelHousing,
	"rent allowance":    LabelHousing,

	"education allowance":          LabelEducation,
	"school / education allowance": LabelEducation,
	"education":                    LabelEducation,
	"school allowance":             LabelEducation,
	"schooling":                    LabelEducation,

	"other":         LabelOther,
	"miscellaneous": LabelOther,
	"other costs":   LabelOther,
}

// totalLabels are line items that restate the total and are left out of the matrix.
var totalLabels = map[string]bool{
	"total employer cost": true,
	"total":               true,
}

// CanonicalLabel maps a model-produced line item label onto a comparison row.
// Unknown labels fall into Other.
func CanonicalLabel(raw string) string {
	if label, ok := labelVariants[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return label
	}
	return LabelOther
}

// Comparison is a label by scenario matrix of annual USD amounts.
// Values[i][j] is scenario i's amount for Labels[j]; absent labels are 0.
type Comparison struct {
	Labels        []string
	Names         []string
	Values        [][]float64
	Totals        []float64
	Cheapest      int
	MostExpensive int
}

// Compare lines up the scenarios' line items under canonical labels. Only
// labels present in at least one scenario become rows. Cheapest and
// MostExpensive index into Names by total employer cost in USD; ties go to
// the earlier scenario.
func Compare(scenarios []Scenario) (Comparison, error) {
	if len(scenarios) == 0 {
		return Comparison{}, fmt.Errorf("%w: no scenarios to compare", common.ErrNotFound)
	}

	present := make(map[string]bool)
	buckets := make([]map[string]float64, len(scenarios))
	cmp := Comparison{
		Names:  make([]string, len(scenarios)),
		Totals: make([]float64, len(scenarios)),
	}

	for i, sc := range scenarios {
		cmp.Names[i] = sc.Name()
		buckets[i] = make(map[string]float64)
		if sc.Result() == nil {
			continue
		}
		cmp.Totals[i] = sc.Result().TotalEmployerCostUSD()
		for _, item := range sc.Result().LineItems() {
			if totalLabels[strings.ToLower(strings.TrimSpace(item.Label))] {
				continue
			}
			label := CanonicalLabel(item.Label)
			buckets[i][label] += item.AmountUSD
			present[label] = true
		}
	}

	for _, label := range CanonicalLabels {
		if present[label] {
			cmp.Labels = append(cmp.Labels, label)
		}
	}

	cmp.Values = make([][]float64, len(scenarios))
	for i := range scenarios {
		row := make([]float64, len(cmp.Labels))
		for j, label := range cmp.Labels {
			row[j] = buckets[i][label]
		}
		cmp.Values[i] = row
	}

	for i, total := range cmp.Totals {
		if total < cmp.Totals[cmp.Cheapest] {
			cmp.Cheapest = i
		}
		if total > cmp.Totals[cmp.MostExpensive] {
			cmp.MostExpensive = i
		}
	}

	return cmp, nil
}

// Row returns the amounts of label across scenarios, or nil if absent.
func (c Comparison) Row(label string) []float64 {
	j := slices.Index(c.Labels, label)
	if j < 0 {
		return nil
	}
	row := make([]float64, len(c.Values))
	for i := range c.Values {
		row[i] = c.Values[i][j]
	}
	return row
}
