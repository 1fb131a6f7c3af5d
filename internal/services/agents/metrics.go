package agents

import (
	"math"

	"github.com/ternarybob/vantage/internal/models"
)

// tradingDaysPerYear is used to annualize daily volatility.
const tradingDaysPerYear = 252

// totalReturn is the fractional return from the first to the last close.
func totalReturn(bars []models.PriceBar) (float64, bool) {
	if len(bars) < 2 || bars[0].Close <= 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close/bars[0].Close - 1, true
}

// windowReturn is the fractional return over the trailing n bars.
func windowReturn(bars []models.PriceBar, n int) (float64, bool) {
	if n < 2 || len(bars) < n {
		return totalReturn(bars)
	}
	window := bars[len(bars)-n:]
	return totalReturn(window)
}

// annualizedVolatility computes the stddev of daily returns scaled to a
// yearly figure.
func annualizedVolatility(bars []models.PriceBar) (float64, bool) {
	returns := dailyReturns(bars)
	if len(returns) < 2 {
		return 0, false
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear), true
}

// maxDrawdown is the largest peak-to-trough fractional decline.
func maxDrawdown(bars []models.PriceBar) (float64, bool) {
	if len(bars) < 2 {
		return 0, false
	}

	peak := bars[0].Close
	worst := 0.0
	for _, b := range bars[1:] {
		if b.Close > peak {
			peak = b.Close
			continue
		}
		if peak > 0 {
			if dd := 1 - b.Close/peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst, true
}

// betaAgainst regresses the stock's daily returns on the benchmark's over
// the overlapping tail of both series.
func betaAgainst(stock, bench []models.PriceBar) (float64, bool) {
	sr := dailyReturns(stock)
	br := dailyReturns(bench)
	n := len(sr)
	if len(br) < n {
		n = len(br)
	}
	if n < 20 {
		return 0, false
	}
	sr = sr[len(sr)-n:]
	br = br[len(br)-n:]

	var sMean, bMean float64
	for i := 0; i < n; i++ {
		sMean += sr[i]
		bMean += br[i]
	}
	sMean /= float64(n)
	bMean /= float64(n)

	var cov, bVar float64
	for i := 0; i < n; i++ {
		cov += (sr[i] - sMean) * (br[i] - bMean)
		bVar += (br[i] - bMean) * (br[i] - bMean)
	}
	if bVar == 0 {
		return 0, false
	}
	return cov / bVar, true
}

// upDayShare is the fraction of positive-return days over the trailing n
// bars.
func upDayShare(bars []models.PriceBar, n int) (float64, bool) {
	returns := dailyReturns(bars)
	if len(returns) == 0 {
		return 0, false
	}
	if n > 0 && len(returns) > n {
		returns = returns[len(returns)-n:]
	}
	up := 0
	for _, r := range returns {
		if r > 0 {
			up++
		}
	}
	return float64(up) / float64(len(returns)), true
}

func dailyReturns(bars []models.PriceBar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close > 0 {
			out = append(out, bars[i].Close/bars[i-1].Close-1)
		}
	}
	return out
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
