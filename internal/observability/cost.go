package observability

import (
	"strconv"
	"strings"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6
	defaultPricingModel = "gpt-5-mini"
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// TokenUsage is the provider-neutral token count of one completion
type TokenUsage struct {
	Input     int64
	Output    int64
	Reasoning int64
	Total     int64
}

// PricingTable contains pricing for the planner models
var PricingTable = map[string]ModelPricing{
	"gpt-5":            {InputPricePer1K: 0.00125, OutputPricePer1K: 0.01},
	"gpt-5-mini":       {InputPricePer1K: 0.00025, OutputPricePer1K: 0.002},
	"gpt-5-nano":       {InputPricePer1K: 0.00005, OutputPricePer1K: 0.0004},
	"gpt-5.1":          {InputPricePer1K: 0.00125, OutputPricePer1K: 0.01},
	"gpt-4.1-mini":     {InputPricePer1K: 0.0004, OutputPricePer1K: 0.0016},
	"gpt-4o-mini":      {InputPricePer1K: 0.00015, OutputPricePer1K: 0.0006},
	"gemini-2.5-flash": {InputPricePer1K: 0.0003, OutputPricePer1K: 0.0025},
	"gemini-2.5-pro":   {InputPricePer1K: 0.00125, OutputPricePer1K: 0.01},
}

// CalculateCost calculates the cost in USD of a completion. Unknown models
// are priced like the default planner model; reasoning tokens are billed at
// the input rate.
func CalculateCost(model string, usage TokenUsage) float64 {
	pricing, exists := PricingTable[strings.ToLower(model)]
	if !exists {
		pricing = PricingTable[defaultPricingModel]
	}

	inputCost := (float64(usage.Input) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.Output) / tokensPerKilo) * pricing.OutputPricePer1K
	reasoningCost := (float64(usage.Reasoning) / tokensPerKilo) * pricing.InputPricePer1K

	return inputCost + outputCost + reasoningCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}
