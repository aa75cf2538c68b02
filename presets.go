package main

import (
	"fmt"
	"sort"
	"strings"
)

// PresetQuantity is the kind of rate a preset describes
type PresetQuantity string

const (
	QuantityInflation PresetQuantity = "inflation"
	QuantityHouse     PresetQuantity = "house_appreciation"
	QuantityStock     PresetQuantity = "stock_appreciation"
	QuantitySalary    PresetQuantity = "salary_growth"
	QuantityRent      PresetQuantity = "rent_growth"
	QuantityAny       PresetQuantity = "any"
)

// DistributionPreset is a named distribution with the data it was derived from
type DistributionPreset struct {
	ID          string         // Identifier used in config files (e.g., "uk_cpi")
	Name        string         // Display name
	Quantity    PresetQuantity // What the rate applies to
	Mean        float64        // Percent per year
	StdDev      float64        // Percent per year
	Period      string         // Years the statistics cover
	Description string
	Source      string
}

// DistributionPresets contains the built-in distributions.
// House and stock figures are growth over inflation; rent is growth over house prices.
var DistributionPresets = []DistributionPreset{
	{
		ID:          "uk_cpi",
		Name:        "UK CPI",
		Quantity:    QuantityInflation,
		Mean:        2.7,
		StdDev:      3.7,
		Period:      "1989-2023",
		Description: "Annual UK consumer price inflation",
		Source:      "https://www.ons.gov.uk/economy/inflationandpriceindices/timeseries/d7g7/mm23",
	},
	{
		ID:          "london_house",
		Name:        "London house prices",
		Quantity:    QuantityHouse,
		Mean:        4.2,
		StdDev:      4.1,
		Period:      "1989-2023",
		Description: "Average London house price growth over inflation. A single home varies far more than the average.",
		Source:      "https://www.ons.gov.uk/economy/inflationandpriceindices/bulletins/housepriceindex/latest",
	},
	{
		ID:          "sp500",
		Name:        "S&P 500",
		Quantity:    QuantityStock,
		Mean:        5.1,
		StdDev:      16.9,
		Period:      "1989-2023",
		Description: "S&P 500 index growth over inflation",
		Source:      "https://www.macrotrends.net/2324/sp-500-historical-chart-data",
	},
	{
		ID:          "salary_default",
		Name:        "Salary growth",
		Quantity:    QuantitySalary,
		Mean:        2,
		StdDev:      3,
		Description: "Pay rises over inflation",
	},
	{
		ID:          "rent_tracks_house",
		Name:        "Rent tracks house prices",
		Quantity:    QuantityRent,
		Mean:        0,
		StdDev:      3,
		Description: "Rent growth over house price growth; zero mean couples the two",
	},
	{
		ID:          "flat",
		Name:        "No growth",
		Quantity:    QuantityAny,
		Mean:        0,
		StdDev:      0,
		Description: "Deterministic zero growth, useful for checking cash flows",
	},
}

// GetPresetByID finds a preset by its identifier
func GetPresetByID(id string) *DistributionPreset {
	id = strings.ToLower(strings.TrimSpace(id))
	for i := range DistributionPresets {
		if DistributionPresets[i].ID == id {
			return &DistributionPresets[i]
		}
	}
	return nil
}

// GetPresetsByQuantity groups the presets by what they describe
func GetPresetsByQuantity() map[PresetQuantity][]DistributionPreset {
	result := make(map[PresetQuantity][]DistributionPreset)
	for _, p := range DistributionPresets {
		result[p.Quantity] = append(result[p.Quantity], p)
	}
	return result
}

// GetPresetIDs returns every preset identifier in sorted order
func GetPresetIDs() []string {
	ids := make([]string, 0, len(DistributionPresets))
	for _, p := range DistributionPresets {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	return ids
}

// Resolve replaces a preset reference with the preset's mean and standard deviation.
// A distribution without a preset is returned unchanged.
func (d Distribution) Resolve(quantity PresetQuantity) (Distribution, error) {
	if d.Preset == "" {
		return d, nil
	}
	p := GetPresetByID(d.Preset)
	if p == nil {
		return d, fmt.Errorf("unknown preset %q (available: %s)", d.Preset, strings.Join(GetPresetIDs(), ", "))
	}
	if p.Quantity != quantity && p.Quantity != QuantityAny {
		return d, fmt.Errorf("preset %q describes %s, not %s", p.ID, p.Quantity, quantity)
	}
	return Distribution{Mean: p.Mean, StdDev: p.StdDev, Preset: p.ID}, nil
}
