package models

// Quote is a live snapshot for a single symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Exchange      string  `json:"exchange"`
	Currency      string  `json:"currency"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Timestamp     int64   `json:"timestamp"`
	IsMarketOpen  bool    `json:"is_market_open"`
}

// PricePoint is one entry of a daily closing-price series.
type PricePoint struct {
	Datetime string  `json:"datetime"`
	Close    float64 `json:"close"`
}

// Profile holds slow-changing display metadata for a symbol.
type Profile struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
}

// UnifiedResult is the merged view of all data kinds for one lookup.
// Summary is empty when the news summary was unavailable.
type UnifiedResult struct {
	Symbol  string
	Quote   Quote
	Profile Profile
	Series  []PricePoint
	Summary string
}

// CommandInput is the normalized incoming command produced by the
// chat-platform adapter.
type CommandInput struct {
	Command string
	Options map[string]string
	UserID  string
	GuildID string
}

// EmbedField is a single name/value pair inside an embed.
type EmbedField struct {
	Name  string
	Value string
}

// Embed is the rich part of a reply.
type Embed struct {
	Title    string
	ColorTag string
	Fields   []EmbedField
	Footer   string
}

// Reply is the outgoing payload handed to the chat-platform adapter.
type Reply struct {
	IsPrivate bool
	Text      string
	Embed     *Embed
}
