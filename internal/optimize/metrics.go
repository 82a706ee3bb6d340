package optimize

import (
	"fmt"
	"math"
	"sort"
)

// Metric reduces a simulation history to a scalar performance value. years
// is the window length, used by annualizing metrics.
type Metric func(history []float64, years int) float64

// Final returns the last percent return of the history.
func Final(history []float64, _ int) float64 {
	return history[len(history)-1]
}

// CAGR returns the compound annual growth rate of the final return.
func CAGR(history []float64, years int) float64 {
	if years <= 0 {
		return 0
	}
	growth := 1 + Final(history, years)/100.0
	return (math.Pow(growth, 1/float64(years)) - 1) * 100.0
}

// HighestPeak returns the maximum value reached during the simulation.
func HighestPeak(history []float64, _ int) float64 {
	peak := history[0]
	for _, v := range history[1:] {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// LowestValley returns the minimum value reached during the simulation.
func LowestValley(history []float64, _ int) float64 {
	valley := history[0]
	for _, v := range history[1:] {
		if v < valley {
			valley = v
		}
	}
	return valley
}

// Mean returns the arithmetic mean of the history.
func Mean(history []float64, _ int) float64 {
	sum := 0.0
	for _, v := range history {
		sum += v
	}
	return sum / float64(len(history))
}

// Median returns the median of the history.
func Median(history []float64, _ int) float64 {
	sorted := make([]float64, len(history))
	copy(sorted, history)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MetricByName resolves a configured metric name. Unknown names are a
// configuration error.
func MetricByName(name string) (Metric, error) {
	switch name {
	case "final":
		return Final, nil
	case "cagr":
		return CAGR, nil
	case "highest_peak":
		return HighestPeak, nil
	case "lowest_valley":
		return LowestValley, nil
	case "mean":
		return Mean, nil
	case "median":
		return Median, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}
