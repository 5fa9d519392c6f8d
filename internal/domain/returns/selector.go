package returns

import (
	"sort"
	"strings"
)

// DefaultRateTolerance is the maximum premium over the cheapest quote the
// preferred courier may charge and still be selected.
const DefaultRateTolerance = 5.0

// SurfaceMode is the ground-transport service tier.
const SurfaceMode = "surface"

// CourierQuote is one serviceability quote from the shipment carrier.
type CourierQuote struct {
	CourierID   int64
	CourierName string
	Rate        float64
	Mode        string
}

// SelectorConfig tunes quote selection.
type SelectorConfig struct {
	// PreferredCourier is the carrier brand worth a small premium for
	// reliability (substring match on the courier name, case-insensitive).
	PreferredCourier string
	// RateTolerance is the absolute premium allowed for the preferred
	// courier over the cheapest quote. Zero means DefaultRateTolerance.
	RateTolerance float64
}

// SelectQuote picks the courier for a reverse shipment. Surface quotes are
// preferred outright; when none exist the unfiltered set is used. Within
// that set the cheapest quote is the baseline, and the preferred courier
// overrides it only when its rate is within the tolerance band.
//
// preferredHint, when non-empty, names the brand to favor for this call;
// otherwise the configured preference applies.
func SelectQuote(quotes []CourierQuote, preferredHint string, cfg SelectorConfig) (CourierQuote, error) {
	if len(quotes) == 0 {
		return CourierQuote{}, ErrNoCourierAvailable
	}

	candidates := filterSurface(quotes)
	if len(candidates) == 0 {
		candidates = append([]CourierQuote(nil), quotes...)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Rate < candidates[j].Rate
	})
	cheapest := candidates[0]

	preferred := preferredHint
	if preferred == "" {
		preferred = cfg.PreferredCourier
	}
	if preferred == "" {
		return cheapest, nil
	}

	tolerance := cfg.RateTolerance
	if tolerance == 0 {
		tolerance = DefaultRateTolerance
	}

	for _, q := range candidates {
		if !strings.Contains(strings.ToLower(q.CourierName), strings.ToLower(preferred)) {
			continue
		}
		if q.Rate-cheapest.Rate <= tolerance {
			return q, nil
		}
		break
	}

	return cheapest, nil
}

func filterSurface(quotes []CourierQuote) []CourierQuote {
	surface := make([]CourierQuote, 0, len(quotes))
	for _, q := range quotes {
		if strings.EqualFold(q.Mode, SurfaceMode) {
			surface = append(surface, q)
		}
	}
	return surface
}
