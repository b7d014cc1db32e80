package providers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PriceVerdict is the best-effort price check for one product.
type PriceVerdict struct {
	Product       string   `json:"product"`
	ExpectedPrice string   `json:"expected_price,omitempty"`
	FoundPrices   []string `json:"found_prices"`
	Verified      bool     `json:"verified"`
	Confidence    float64  `json:"confidence"`
	Concerns      []string `json:"concerns"`
	Sources       []string `json:"sources,omitempty"`
}

// PriceHeuristic derives a verdict from free text. Implementations are pure.
type PriceHeuristic interface {
	Assess(product, expected string, texts []string) PriceVerdict
}

var priceRe = regexp.MustCompile(`(?i)(?:nz)?\$\s?((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?)`)

const maxFoundPrices = 10

var (
	freePhrases  = []string{"free entry", "free admission", "free of charge", "no charge", "free to enter", "entry is free"}
	priceSignals = []signal{
		{phrases: []string{"price increase", "prices increase", "prices have risen", "new prices from"}, flag: "Recent price increase reported"},
		{phrases: []string{"surcharge"}, flag: "Surcharges mentioned"},
		{phrases: []string{"booking fee"}, flag: "Booking fees mentioned"},
		{phrases: []string{"sold out", "fully booked"}, flag: "Availability concern: sold out or fully booked"},
		{phrases: []string{"price on application", "contact for pricing", "prices vary"}, flag: "Pricing not published"},
	}
)

// RegexPriceHeuristic collects dollar amounts and a handful of English pricing phrases.
// It cannot tell which product an amount belongs to, so unrelated prices on the same page count.
type RegexPriceHeuristic struct{}

func (RegexPriceHeuristic) Assess(product, expected string, texts []string) PriceVerdict {
	v := PriceVerdict{Product: product, FoundPrices: []string{}, Concerns: []string{}}

	expectedValue, hasExpected := firstPrice(expected)
	if hasExpected {
		v.ExpectedPrice = formatPrice(expectedValue)
	}

	if len(texts) == 0 {
		v.Concerns = append(v.Concerns, "No pricing information found")
		return v
	}
	body := strings.Join(texts, "\n")
	lower := strings.ToLower(body)

	seen := map[string]bool{}
	var values []float64
	if containsAny(lower, freePhrases) {
		seen["free"] = true
		v.FoundPrices = append(v.FoundPrices, "free")
		values = append(values, 0)
	}
	for _, m := range priceRe.FindAllStringSubmatch(body, -1) {
		if len(v.FoundPrices) >= maxFoundPrices {
			break
		}
		val, ok := parseAmount(m[1])
		if !ok {
			continue
		}
		label := formatPrice(val)
		if seen[label] {
			continue
		}
		seen[label] = true
		v.FoundPrices = append(v.FoundPrices, label)
		values = append(values, val)
	}

	for _, s := range priceSignals {
		if containsAny(lower, s.phrases) {
			v.Concerns = append(v.Concerns, s.flag)
		}
	}

	switch {
	case len(values) == 0:
		v.Concerns = append(v.Concerns, "No prices found in search results")
	case !hasExpected:
		v.Verified = true
		v.Confidence = 0.5
	case withinBudget(values, expectedValue):
		v.Verified = true
		v.Confidence = 0.8
	default:
		v.Confidence = 0.3
		v.Concerns = append(v.Concerns, fmt.Sprintf("Prices found (from %s) exceed the expected %s",
			formatPrice(minValue(values)), v.ExpectedPrice))
	}
	return v
}

// withinBudget allows 20% over the expected amount.
func withinBudget(values []float64, expected float64) bool {
	for _, val := range values {
		if val <= expected*1.2 {
			return true
		}
	}
	return false
}

func minValue(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func firstPrice(s string) (float64, bool) {
	m := priceRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return parseAmount(m[1])
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatPrice(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("$%d", int64(v))
	}
	return fmt.Sprintf("$%.2f", v)
}

// PriceAdapter checks current pricing for the requested activity against any budget in the dealmaker.
type PriceAdapter struct {
	searcher  Searcher
	heuristic PriceHeuristic
}

func NewPrice(s Searcher, h PriceHeuristic) *PriceAdapter {
	return &PriceAdapter{searcher: s, heuristic: h}
}

func (a *PriceAdapter) Name() string { return NamePrice }

func (a *PriceAdapter) Lookup(ctx context.Context, p TripParams) Result {
	if p.Product == "" {
		return Failed(NamePrice, "No product named in the request")
	}

	expected := ""
	if v, ok := firstPrice(p.Dealmaker); ok {
		expected = formatPrice(v)
	}

	objective := fmt.Sprintf("Verify current price in NZD for %q", p.Product)
	if expected != "" {
		objective += ", expected around " + expected
	}
	resp, err := a.searcher.Search(ctx, FastTuning.request(objective))
	if err != nil {
		return Failed(NamePrice, failureReason(NamePrice, err))
	}

	verdict := a.heuristic.Assess(p.Product, expected, resp.Texts())
	verdict.Sources = resp.URLs()
	return Ok(NamePrice, verdict)
}
