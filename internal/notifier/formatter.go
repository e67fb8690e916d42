package notifier

import (
	"fmt"
	"sort"
	"strings"

	"OISentinel/internal/model"
)

// FormatFailure formats the private report sent when a run aborts.
func FormatFailure(err error) string {
	return "Oops, script raised following error:\n" + err.Error()
}

// FormatWatchlist renders the watchlist sorted by asset, one per line.
func FormatWatchlist(w model.Watchlist) string {
	if len(w) == 0 {
		return "watchlist: empty"
	}
	assets := make([]string, 0, len(w))
	for a := range w {
		assets = append(assets, a)
	}
	sort.Strings(assets)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("watchlist: %d asset(s)\n", len(w)))
	for _, a := range assets {
		b.WriteString(fmt.Sprintf("  %s %+.2f%%\n", a, w[a]))
	}
	return strings.TrimRight(b.String(), "\n")
}
