package services

// modelRates holds per-1K-token USD pricing for known models. Models absent
// from the table cost 0.
type modelRates struct {
	Input  float64
	Output float64
}

var pricingTable = map[string]modelRates{
	"claude-3-5-sonnet-20240620": {Input: 0.003, Output: 0.015},
	"claude-3-5-haiku-20241022":  {Input: 0.0008, Output: 0.004},
	"claude-sonnet-4-20250514":   {Input: 0.003, Output: 0.015},
	"gpt-4o":                     {Input: 0.0025, Output: 0.01},
	"gpt-4o-mini":                {Input: 0.00015, Output: 0.0006},
}

// EstimateCost computes the estimated USD cost of one model call as
// (inputTokens/1000)*inputRate + (outputTokens/1000)*outputRate.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	rates, ok := pricingTable[model]
	if !ok {
		return 0
	}
	return (float64(inputTokens)/1000)*rates.Input + (float64(outputTokens)/1000)*rates.Output
}
