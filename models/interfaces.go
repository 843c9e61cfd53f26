package models

import "context"

type QuoteClient interface {
	GetQuote(ctx context.Context, symbol string) (Quote, error)
}

type HistoryClient interface {
	GetTimeSeries(ctx context.Context, symbol string, days int) ([]PricePoint, error)
}

type SummaryClient interface {
	Summarize(ctx context.Context, symbol, name string) (string, error)
}
