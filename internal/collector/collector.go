package collector

import (
	"fmt"
	"time"

	"SignalSentry/internal/model"
)

// LookbackDays is how much daily history the evaluator needs. The evaluator
// rejects series shorter than 20 samples, so anything at or above that floor
// works; 50 matches the support/resistance window.
const LookbackDays = 50

// Collector fetches and assembles the price series for one symbol.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// CollectSeries fetches the daily history for a symbol. Errors are returned
// explicitly; callers decide the fail-soft policy (skip the symbol).
func (c *Collector) CollectSeries(symbol string) (*model.PriceSeries, error) {
	bars, err := c.Fetcher.FetchDailyBars(symbol, LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars for %s: %w", symbol, err)
	}
	series := &model.PriceSeries{
		Symbol:    symbol,
		Bars:      bars,
		FetchedAt: time.Now(),
	}
	if len(bars) > 0 {
		series.CurrentPrice = bars[len(bars)-1].Close
	}
	return series, nil
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV
	Err       error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return GenerateMockBars(m.Price, days), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Price, nil
}

// GenerateMockBars builds a gently trending series around basePrice.
func GenerateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p,
			High:   p,
			Low:    p,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
