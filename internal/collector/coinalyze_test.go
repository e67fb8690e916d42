package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headerHTML = `<tr>
<th>#</th>
<th>Coin</th>
<th><div><span title="Open Interest Change % 24H">OI 24H</span></div></th>
<th><div><span title="Open Interest Change % 4H">OI 4H</span></div></th>
</tr>`

func pageHTML(rows ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><table>")
	b.WriteString(headerHTML)
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString("</table></body></html>")
	return b.String()
}

func coinRow(n int, long, short, chg24h, chg4h string) string {
	return fmt.Sprintf(`<tr><td>%d</td><td><a><span>%s</span><span>%s</span></a></td><td>%s</td><td>%s</td></tr>`,
		n, long, short, chg24h, chg4h)
}

func TestExtractTable(t *testing.T) {
	html := pageHTML(
		coinRow(1, "Bitcoin", "BTC", "+250.00%", "+0.10%"),
		coinRow(2, "Ethereum", "ETH", "-3.20%", "-0.50%"),
	)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	snap, err := ExtractTable(doc)
	require.NoError(t, err)
	require.Len(t, snap.Header, 4)
	assert.Equal(t, "Coin", snap.Header[1].VisibleText)
	assert.Equal(t, []string{"Open Interest Change % 24H"}, snap.Header[2].AccessibleLabels)
	assert.Empty(t, snap.Header[0].AccessibleLabels)
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, []string{"Ethereum", "ETH"}, snap.Rows[1].Cells[1].Parts)
	assert.Equal(t, "-3.20%", snap.Rows[1].Cells[2].Text)

	cols, err := ResolveColumns(snap.Header, DefaultTitles)
	require.NoError(t, err)
	rec, err := BuildRecord(snap.Rows[0], cols)
	require.NoError(t, err)
	assert.Equal(t, "BTC", rec.ShortName)
	assert.InDelta(t, 250, rec.Change24h, 1e-9)
}

func TestExtractTable_SeveralTitledSpansInHeader(t *testing.T) {
	html := `<html><body><table>
<tr>
<th>Coin</th>
<th><div><span title="Sort">^</span><span title="Open Interest Change % 24H">OI 24H</span></div></th>
<th><div><span title="Info">i</span><span title="Sort">^</span><span title="Open Interest Change % 4H">OI 4H</span></div></th>
</tr>
<tr><td><span>Solana</span><span>SOL</span></td><td>+80.00%</td><td>+0.40%</td></tr>
</table></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	snap, err := ExtractTable(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sort", "Open Interest Change % 24H"}, snap.Header[1].AccessibleLabels)

	cols, err := ResolveColumns(snap.Header, DefaultTitles)
	require.NoError(t, err)
	assert.Equal(t, Columns{Coin: 0, Change24h: 1, Change4h: 2}, cols)

	rec, err := BuildRecord(snap.Rows[0], cols)
	require.NoError(t, err)
	assert.Equal(t, "SOL", rec.ShortName)
	assert.InDelta(t, 0.4, rec.Change4h, 1e-9)
}

func TestExtractTable_NoTable(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>maintenance</p></body></html>"))
	require.NoError(t, err)
	_, err = ExtractTable(doc)
	assert.Error(t, err)
}

func TestCoinalyzeFetcher_FetchPage(t *testing.T) {
	var gotPages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPages = append(gotPages, r.URL.Query().Get("p"))
		assert.Equal(t, "oi_24h_pchange", r.URL.Query().Get("order_by"))
		assert.Equal(t, "sentinel-test", r.Header.Get("User-Agent"))
		if r.URL.Query().Get("p") == "1" {
			fmt.Fprint(w, pageHTML(coinRow(1, "Bitcoin", "BTC", "+1.00%", "+0.10%")))
			return
		}
		fmt.Fprint(w, pageHTML())
	}))
	defer server.Close()

	f := NewCoinalyzeFetcher(server.URL+"/?order_by=oi_24h_pchange", FetcherOptions{
		UserAgent: "sentinel-test",
		Timeout:   5 * time.Second,
	})
	ctx := context.Background()

	snap, err := f.FetchPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Page)
	assert.Len(t, snap.Rows, 1)

	snap, err = f.FetchPage(ctx, 2)
	require.NoError(t, err)
	assert.True(t, snap.Empty())
	assert.Len(t, snap.Header, 4)

	assert.Equal(t, []string{"1", "2"}, gotPages)
}

func TestCoinalyzeFetcher_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("p") == "1" {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "<html><body>captcha</body></html>")
	}))
	defer server.Close()

	f := NewCoinalyzeFetcher(server.URL, FetcherOptions{Timeout: 5 * time.Second})

	for _, page := range []int{1, 2} {
		_, err := f.FetchPage(context.Background(), page)
		var ferr *FetchError
		require.True(t, errors.As(err, &ferr), "page %d: %v", page, err)
		assert.Equal(t, page, ferr.Page)
	}
}
