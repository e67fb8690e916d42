package model

// AssetChangeRecord holds the parsed open interest changes of one table row.
type AssetChangeRecord struct {
	ShortName string
	LongName  string
	Change24h float64
	Change4h  float64
	Raw24h    string // change string as shown by the source, used in alert text
	Raw4h     string
}

// HistoryEntry is the last tracked quiet 4h value of an asset.
type HistoryEntry struct {
	Asset     string
	LastValue float64
}

// Watchlist maps an asset short name to its last tracked quiet 4h value.
type Watchlist map[string]float64

// Entry returns the history entry for asset, or nil when it is not tracked.
func (w Watchlist) Entry(asset string) *HistoryEntry {
	v, ok := w[asset]
	if !ok {
		return nil
	}
	return &HistoryEntry{Asset: asset, LastValue: v}
}

// Clone returns an independent copy of the watchlist.
func (w Watchlist) Clone() Watchlist {
	out := make(Watchlist, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
