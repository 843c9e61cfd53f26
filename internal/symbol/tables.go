package symbol

// Static lookup data. Loaded once, read-only at runtime.

// corrections maps common misspellings to the ticker the user meant.
var corrections = map[string]string{
	"APPL":     "AAPL",
	"APLE":     "AAPL",
	"GOGL":     "GOOGL",
	"GOOG":     "GOOGL",
	"AMAZN":    "AMZN",
	"TESLA":    "TSLA",
	"MICROSFT": "MSFT",
	"NVDIA":    "NVDA",
	"NIVIDIA":  "NVDA",
	"FB":       "META",
	"NFLIX":    "NFLX",
	"BRKB":     "BRK.B",
}

// popular is the fallback suggestion list, most queried first.
var popular = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA",
	"META", "TSLA", "AMD", "NFLX", "INTC",
	"JPM", "V", "DIS", "BA", "KO",
}

// cryptoNames maps spelled-out coin names to their ticker.
var cryptoNames = map[string]string{
	"BITCOIN":   "BTC",
	"ETHEREUM":  "ETH",
	"SOLANA":    "SOL",
	"DOGECOIN":  "DOGE",
	"CARDANO":   "ADA",
	"RIPPLE":    "XRP",
	"LITECOIN":  "LTC",
	"POLKADOT":  "DOT",
	"AVALANCHE": "AVAX",
	"CHAINLINK": "LINK",
	"POLYGON":   "MATIC",
	"MONERO":    "XMR",
}
