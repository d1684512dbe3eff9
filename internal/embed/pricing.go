package embed

// pricePerToken is the pinned USD-per-token price table from §4.H
// ("estimated_cost_usd = tokens_used × price_per_token(model)"). An
// unrecognized model prices at 0 with a warning surfaced by the caller.
var pricePerToken = map[string]float64{
	"static-hash-256":        0,
	"text-embedding-3-small": 0.00000002,
	"text-embedding-3-large": 0.00000013,
	"ollama-nomic-embed":     0,
}

// EstimateCost returns tokens × price_per_token(model), or (0, false) if
// model isn't in the pinned table.
func EstimateCost(model string, tokens int) (float64, bool) {
	price, ok := pricePerToken[model]
	if !ok {
		return 0, false
	}
	return float64(tokens) * price, true
}
