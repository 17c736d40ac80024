package ticker

// defaultAllow gates bare uppercase words. Only symbols that are both real
// listings and commonly discussed without a cashtag belong here; single-letter
// tickers are left out since bare "F" or "T" is almost never a ticker.
var defaultAllow = []string{
	"AAPL", "ABNB", "ADBE", "AFRM", "AMC", "AMD", "AMZN", "ARKK", "ARM", "ASTS",
	"AVGO", "BABA", "BAC", "BB", "BBBY", "BYND", "CELH", "CHWY", "COIN", "COST",
	"CRM", "CRWD", "CVNA", "CVS", "DIS", "DJT", "DKNG", "GLD", "GME", "GOOG",
	"GOOGL", "GS", "HIMS", "HOOD", "INTC", "IONQ", "IWM", "JPM", "LCID", "LLY",
	"LULU", "META", "MRNA", "MSFT", "MSTR", "MU", "NFLX", "NIO", "NKE", "NOK",
	"NVDA", "NVO", "ORCL", "OXY", "PFE", "PLTR", "PYPL", "QCOM", "QQQ", "RBLX",
	"RDDT", "RIVN", "RKLB", "ROKU", "SBUX", "SCHW", "SHOP", "SLV", "SMCI", "SNAP",
	"SNOW", "SOFI", "SOXL", "SOXS", "SPOT", "SPY", "SQQQ", "TGT", "TLRY", "TLT",
	"TQQQ", "TSLA", "TSM", "UBER", "UNH", "UPST", "USO", "UVXY", "VOO", "WBA",
	"WFC", "WMT", "XOM",
}

// defaultDeny holds short uppercase words that show up constantly in forum
// text: English words, finance acronyms and sub jargon. It wins over the
// allow-list and applies to cashtags too.
var defaultDeny = []string{
	"A", "AI", "ALL", "AM", "AN", "AND", "ANY", "ARE", "AS", "AT",
	"ATH", "ATM", "BE", "BEAR", "BIG", "BTFD", "BULL", "BUT", "BUY", "BY",
	"CALL", "CAN", "CEO", "CFO", "CPI", "CTO", "DD", "DO", "DTE", "EOD",
	"EOW", "EPS", "ETF", "EU", "EV", "FBI", "FD", "FDA", "FED", "FOMC",
	"FOMO", "FOR", "FUD", "FYI", "GAIN", "GDP", "GO", "GOT", "HAS", "HE",
	"HODL", "HOLD", "I", "IF", "IMO", "IN", "IPO", "IRA", "IRS", "IS",
	"IT", "ITM", "IV", "LMAO", "LOL", "LOSS", "ME", "MOASS", "MOON", "MY",
	"NEW", "NO", "NOT", "NOW", "NYSE", "OF", "OK", "ON", "ONE", "OR",
	"OTM", "OUT", "PDT", "PE", "PM", "PT", "PUT", "PUTS", "QE", "RH",
	"ROI", "SEC", "SELL", "SO", "SP", "SPAC", "TA", "THE", "TLDR", "TO",
	"UK", "UP", "US", "USA", "USD", "WE", "WSB", "WTF", "YOLO", "YOY",
}
