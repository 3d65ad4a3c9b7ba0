package services

import (
	"yard-sniper/models"
)

// FeeRate is the marketplace fee taken from the sale price.
const FeeRate = 0.1495

// Flip-ETA buckets.
const (
	ETAFast    = "7–14 days"
	ETAMedium  = "14–30 days"
	ETASlow    = ">30 days"
	ETAUnknown = "N/A"
)

// AutoBuyMinConfidence is the lowest confidence that can trigger auto-buy.
const AutoBuyMinConfidence = 70

// flipBucket maps a sold-sample count to a flip-ETA bucket and confidence.
func flipBucket(samples int) (string, int) {
	switch {
	case samples >= 15:
		return ETAFast, 90
	case samples >= 8:
		return ETAMedium, 80
	case samples >= 4:
		return ETASlow, 65
	case samples >= 1:
		return ETASlow, 50
	}
	return ETAUnknown, 0
}

// Score derives a profitability profile from sold comparables. Shipping is
// only deducted when the seller pays it. Money values are rounded to cents.
func Score(stats models.ComparableStats, cost, ship float64, buyerPaysShipping bool) models.ProfitabilityProfile {
	p := models.ProfitabilityProfile{
		SampleCount: stats.SampleCount,
		Cost:        cost,
		Ship:        ship,
	}
	p.FlipETA, p.ConfidencePct = flipBucket(stats.SampleCount)

	price := 0.0
	if stats.HasData() {
		price = stats.AvgPrice
	}
	p.AvgPrice = round2(price)

	fee := price * FeeRate
	net := price - cost - fee
	if !buyerPaysShipping {
		net -= ship
	}
	p.Fee = round2(fee)
	p.NetProfit = round2(net)
	if price > 0 {
		p.MarginPct = round2(net / price * 100)
	}

	p.AutoBuy = p.ConfidencePct >= AutoBuyMinConfidence &&
		(p.FlipETA == ETAFast || p.FlipETA == ETAMedium) &&
		net >= 0
	return p
}

// BestLane returns the profile with the highest net profit. BuyBoth is set on
// the result when at least two lanes would auto-buy. It returns false for an
// empty slice.
func BestLane(profiles []models.ProfitabilityProfile) (models.ProfitabilityProfile, bool) {
	if len(profiles) == 0 {
		return models.ProfitabilityProfile{}, false
	}

	best := profiles[0]
	autoBuys := 0
	for _, p := range profiles {
		if p.AutoBuy {
			autoBuys++
		}
		if p.NetProfit > best.NetProfit {
			best = p
		}
	}
	best.BuyBoth = autoBuys >= 2
	return best, true
}

func round2(f float64) float64 {
	if f < 0 {
		return -float64(int(-f*100+0.5)) / 100
	}
	return float64(int(f*100+0.5)) / 100
}
