package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"SignalSentry/internal/model"
)

// DefaultCoinGeckoURL is the public CoinGecko API base.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoFetcher implements Fetcher against the CoinGecko REST API.
type CoinGeckoFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewCoinGeckoFetcher creates a fetcher with optional proxy support.
func NewCoinGeckoFetcher(baseURL, proxyURL string) *CoinGeckoFetcher {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &CoinGeckoFetcher{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: transport,
		},
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// BaseAsset extracts the lowercased base asset from a compound ticker,
// e.g. "BTC-USDT" -> "btc". A bare symbol passes through unchanged.
func BaseAsset(symbol string) string {
	base, _, _ := strings.Cut(symbol, "-")
	return strings.ToLower(base)
}

// marketChart is the CoinGecko market_chart response. Each entry is a
// [millisecond timestamp, value] pair.
type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// FetchDailyBars queries the market_chart endpoint for daily samples.
// CoinGecko returns a single price line, so open/high/low alias the close.
func (f *CoinGeckoFetcher) FetchDailyBars(symbol string, days int) ([]model.OHLCV, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		f.BaseURL, url.PathEscape(BaseAsset(symbol)), days)
	body, err := f.get(endpoint)
	if err != nil {
		return nil, err
	}

	var chart marketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode market chart: %w", err)
	}
	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("coingecko: no price data for %s", symbol)
	}

	bars := make([]model.OHLCV, 0, len(chart.Prices))
	for i, p := range chart.Prices {
		bar := model.OHLCV{
			Time:  time.UnixMilli(int64(p[0])),
			Open:  p[1],
			High:  p[1],
			Low:   p[1],
			Close: p[1],
		}
		if i < len(chart.TotalVolumes) {
			bar.Volume = chart.TotalVolumes[i][1]
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchCurrentPrice queries the simple/price endpoint. The response keys on
// the coin id, so the value is pulled out with a dynamic gjson path.
func (f *CoinGeckoFetcher) FetchCurrentPrice(symbol string) (float64, error) {
	coin := BaseAsset(symbol)
	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", f.BaseURL, url.QueryEscape(coin))
	body, err := f.get(endpoint)
	if err != nil {
		return 0, err
	}
	price := gjson.GetBytes(body, coin+".usd")
	if !price.Exists() {
		return 0, fmt.Errorf("coingecko: no usd price for %s", coin)
	}
	return price.Float(), nil
}

func (f *CoinGeckoFetcher) get(endpoint string) ([]byte, error) {
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coingecko read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
