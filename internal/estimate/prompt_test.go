package estimate

import (
	"testing"

	"github.com/Veraticus/shadow-payroll/internal/calc"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioInput(t *testing.T) (*model.PayrollInput, model.BaseCalculation) {
	t.Helper()
	in := model.NewPayrollInput(model.DefaultLimits())
	require.NoError(t, in.SetHostCountry("Argentina"))
	require.NoError(t, in.SetHomeCountry("United States"))
	require.NoError(t, in.SetSalaryUSD(400000))
	require.NoError(t, in.SetDurationMonths(36))
	require.NoError(t, in.SetHousingUSD(50000))
	require.NoError(t, in.SetSchoolUSD(30000))
	require.NoError(t, in.SetFXRate(1000))
	require.NoError(t, in.SetHasSpouse(true))
	require.NoError(t, in.SetNumChildren(2))

	base, err := calc.CalculateBase(in)
	require.NoError(t, err)
	return in, base
}

func TestBuildRequest(t *testing.T) {
	in, base := scenarioInput(t)

	req := BuildRequest(in, base)

	assert.Equal(t, "ARS", req.LocalCurrency)
	assert.Equal(t, "Latin America", req.Region)
	assert.Contains(t, req.System, "JSON object")

	for _, want := range []string{
		"Home country: United States",
		"Host country: Argentina",
		"Annual base salary: USD 400,000",
		"36 months (1,080 days)",
		"Housing allowance: USD 50,000 per year",
		"School allowance: USD 30,000 per year",
		"Dependent spouse: Yes",
		"Dependent children: 2",
		"1 USD = 1,000 ARS",
		"Gross: ARS 40,000,000.00 per month",
		"Region for benchmarking: Latin America",
		"Low, Medium, High",
		"ANNUAL",
		"Social Security - Employer",
	} {
		assert.Contains(t, req.Text, want)
	}
}

func TestBuildRequestIsDeterministic(t *testing.T) {
	in, base := scenarioInput(t)

	first := BuildRequest(in, base)
	second := BuildRequest(in.Clone(), base)
	assert.Equal(t, first, second)

	require.NoError(t, in.SetSalaryUSD(400001))
	third := BuildRequest(in, base)
	assert.NotEqual(t, first.Text, third.Text)
}

func TestBuildRequestKeepsInputPrecision(t *testing.T) {
	tests := []struct {
		name   string
		fx     float64
		salary float64
		want   []string
	}{
		{
			name:   "rate below one",
			fx:     0.004,
			salary: 100000.4,
			want:   []string{"1 USD = 0.004 ARS", "Annual base salary: USD 100,000.4"},
		},
		{
			name:   "three decimal rate",
			fx:     0.307,
			salary: 100000.25,
			want:   []string{"1 USD = 0.307 ARS", "Annual base salary: USD 100,000.25"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := scenarioInput(t)
			require.NoError(t, in.SetFXRate(tt.fx))
			require.NoError(t, in.SetSalaryUSD(tt.salary))
			base, err := calc.CalculateBase(in)
			require.NoError(t, err)

			req := BuildRequest(in, base)
			for _, want := range tt.want {
				assert.Contains(t, req.Text, want)
			}
		})
	}
}

func TestBuildRequestDistinguishesFractionalSalaries(t *testing.T) {
	in, _ := scenarioInput(t)
	require.NoError(t, in.SetFXRate(0.004))

	require.NoError(t, in.SetSalaryUSD(100000.4))
	base, err := calc.CalculateBase(in)
	require.NoError(t, err)
	first := BuildRequest(in, base)

	require.NoError(t, in.SetSalaryUSD(100000.2))
	base, err = calc.CalculateBase(in)
	require.NoError(t, err)
	second := BuildRequest(in, base)

	assert.NotEqual(t, first.Text, second.Text)
}

func TestBuildRequestUnknownCountry(t *testing.T) {
	in, base := scenarioInput(t)
	require.NoError(t, in.SetHostCountry("Atlantis"))

	req := BuildRequest(in, base)
	assert.Equal(t, "USD", req.LocalCurrency)
	assert.Equal(t, "Global", req.Region)
}

func TestRequestCarriesSchema(t *testing.T) {
	in, base := scenarioInput(t)
	llmReq := BuildRequest(in, base).LLM()

	assert.Equal(t, schemaName, llmReq.SchemaName)
	require.NotNil(t, llmReq.Schema)
	assert.Equal(t, "object", llmReq.Schema["type"])
	assert.NotContains(t, llmReq.Schema, "$schema")

	llmReq.Schema["type"] = "mutated"
	assert.Equal(t, "object", SchemaHint()["type"])
}
