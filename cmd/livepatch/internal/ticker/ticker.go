// Package ticker simulates a stock feed for the demo server.
package ticker

import (
	"math"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Stock is one quote. Key carries the symbol so quotes render as keyed list
// items.
type Stock struct {
	Key           string  `json:"key"`
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int     `json:"volume"`
	Timestamp     string  `json:"timestamp"`
}

// Update is a full snapshot of the feed.
type Update struct {
	Stocks []Stock `json:"stocks"`
}

type quote struct {
	symbol  string
	price   float64
	baseVol int
}

// defaultQuotes are the symbols the ticker starts with.
var defaultQuotes = []quote{
	{"AAPL", 178.50, 50000000},
	{"GOOGL", 142.30, 25000000},
	{"MSFT", 405.20, 30000000},
	{"AMZN", 175.80, 45000000},
	{"TSLA", 248.90, 80000000},
	{"META", 485.30, 20000000},
}

// Ticker produces random walks of the default quotes. It is safe for
// concurrent use.
type Ticker struct {
	mu     sync.Mutex
	faker  *gofakeit.Faker
	quotes []quote
	now    func() time.Time
}

// New creates a ticker. A zero seed picks a random one.
func New(seed uint64) *Ticker {
	return &Ticker{
		faker:  gofakeit.New(seed),
		quotes: append([]quote(nil), defaultQuotes...),
		now:    time.Now,
	}
}

// Next moves every price and returns the new snapshot.
func (t *Ticker) Next() Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	stamp := t.now().Format("15:04:05")
	update := Update{Stocks: make([]Stock, len(t.quotes))}

	for i, q := range t.quotes {
		change := t.faker.Float64Range(-2.5, 2.5)
		price := math.Max(q.price+change, 1)
		change = price - q.price

		update.Stocks[i] = Stock{
			Key:           q.symbol,
			Symbol:        q.symbol,
			Price:         roundToTwo(price),
			Change:        roundToTwo(change),
			ChangePercent: roundToTwo(change / q.price * 100),
			Volume:        q.baseVol + t.faker.IntRange(0, 10000000),
			Timestamp:     stamp,
		}
		t.quotes[i].price = price
	}
	return update
}

func roundToTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
