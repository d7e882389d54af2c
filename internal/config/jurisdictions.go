package config

import "strings"

// Jurisdiction is a selectable host or home country.
type Jurisdiction struct {
	Country  string
	Region   string
	Currency string
}

// DefaultRegion and DefaultCurrency apply to countries missing from the table.
const (
	DefaultRegion   = "Global"
	DefaultCurrency = "USD"
)

// Jurisdictions lists the curated assignment destinations.
var Jurisdictions = []Jurisdiction{
	{Country: "Argentina", Region: "Latin America", Currency: "ARS"},
	{Country: "Australia", Region: "Asia Pacific", Currency: "AUD"},
	{Country: "Brazil", Region: "Latin America", Currency: "BRL"},
	{Country: "Canada", Region: "North America", Currency: "CAD"},
	{Country: "Chile", Region: "Latin America", Currency: "CLP"},
	{Country: "China", Region: "Asia Pacific", Currency: "CNY"},
	{Country: "Colombia", Region: "Latin America", Currency: "COP"},
	{Country: "France", Region: "Western Europe", Currency: "EUR"},
	{Country: "Germany", Region: "Western Europe", Currency: "EUR"},
	{Country: "India", Region: "South Asia", Currency: "INR"},
	{Country: "Ireland", Region: "Western Europe", Currency: "EUR"},
	{Country: "Italy", Region: "Western Europe", Currency: "EUR"},
	{Country: "Japan", Region: "Asia Pacific", Currency: "JPY"},
	{Country: "Mexico", Region: "Latin America", Currency: "MXN"},
	{Country: "Netherlands", Region: "Western Europe", Currency: "EUR"},
	{Country: "New Zealand", Region: "Asia Pacific", Currency: "NZD"},
	{Country: "Peru", Region: "Latin America", Currency: "PEN"},
	{Country: "Philippines", Region: "Asia Pacific", Currency: "PHP"},
	{Country: "Poland", Region: "Central & Eastern Europe", Currency: "PLN"},
	{Country: "Portugal", Region: "Western Europe", Currency: "EUR"},
	{Country: "Singapore", Region: "Asia Pacific", Currency: "SGD"},
	{Country: "South Korea", Region: "Asia Pacific", Currency: "KRW"},
	{Country: "Spain", Region: "Western Europe", Currency: "EUR"},
	{Country: "Sweden", Region: "Nordics", Currency: "SEK"},
	{Country: "Switzerland", Region: "Western Europe", Currency: "CHF"},
	{Country: "United Arab Emirates", Region: "Middle East", Currency: "AED"},
	{Country: "United Kingdom", Region: "Western Europe", Currency: "GBP"},
	{Country: "United States", Region: "North America", Currency: "USD"},
	{Country: "Uruguay", Region: "Latin America", Currency: "UYU"},
	{Country: "Other", Region: DefaultRegion, Currency: DefaultCurrency},
}

// DisplayCurrencies are the currencies a user may choose for presentation.
var DisplayCurrencies = []string{
	"USD", "EUR", "GBP", "ARS", "BRL", "CAD", "CHF", "CNY", "JPY", "MXN", "SGD", "AUD",
}

// Lookup finds a jurisdiction by case-insensitive country name.
func Lookup(country string) (Jurisdiction, bool) {
	name := strings.TrimSpace(country)
	for _, j := range Jurisdictions {
		if strings.EqualFold(j.Country, name) {
			return j, true
		}
	}
	return Jurisdiction{Country: name, Region: DefaultRegion, Currency: DefaultCurrency}, false
}

// Region returns the benchmark region of a country.
func Region(country string) string {
	j, _ := Lookup(country)
	return j.Region
}

// Currency returns the local currency of a country.
func Currency(country string) string {
	j, _ := Lookup(country)
	return j.Currency
}

// CountryNames lists the table's countries in order.
func CountryNames() []string {
	names := make([]string, 0, len(Jurisdictions))
	for _, j := range Jurisdictions {
		names = append(names, j.Country)
	}
	return names
}
