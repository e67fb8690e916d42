package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"OISentinel/internal/model"
)

// CoinalyzeFetcher implements TableFetcher by scraping the coinalyze screener table.
type CoinalyzeFetcher struct {
	BaseURL   string // screener URL carrying its fixed filter, column and order query
	PageParam string
	UserAgent string
	Client    *http.Client
	Limiter   *rate.Limiter

	logger zerolog.Logger
}

// FetcherOptions configures a CoinalyzeFetcher.
type FetcherOptions struct {
	PageParam         string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Proxy             string
}

// NewCoinalyzeFetcher creates a fetcher with optional proxy support.
func NewCoinalyzeFetcher(baseURL string, opts FetcherOptions) *CoinalyzeFetcher {
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PageParam == "" {
		opts.PageParam = "p"
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &CoinalyzeFetcher{
		BaseURL:   baseURL,
		PageParam: opts.PageParam,
		UserAgent: opts.UserAgent,
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		Limiter: rate.NewLimiter(limit, 1),
		logger:  log.With().Str("component", "coinalyze").Logger(),
	}
}

func (f *CoinalyzeFetcher) Name() string { return "coinalyze" }

func (f *CoinalyzeFetcher) pageURL(page int) (string, error) {
	u, err := url.Parse(f.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set(f.PageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchPage downloads page and extracts its first table. A page without any
// table is an error; a table without data rows is a valid empty page.
func (f *CoinalyzeFetcher) FetchPage(ctx context.Context, page int) (*model.TableSnapshot, error) {
	if err := f.Limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Page: page, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	endpoint, err := f.pageURL(page)
	if err != nil {
		return nil, &FetchError{Page: page, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Page: page, Err: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	f.logger.Debug().Int("page", page).Str("url", endpoint).Msg("fetching page")
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Page: page, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{Page: page, Err: fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{Page: page, Err: fmt.Errorf("parse html: %w", err)}
	}
	snap, err := ExtractTable(doc)
	if err != nil {
		return nil, &FetchError{Page: page, Err: err}
	}
	snap.Page = page
	return snap, nil
}

var errNoTable = errors.New("no table in page")

// ExtractTable converts the first table of doc into a snapshot. The first
// row supplies the header cells; the remaining rows are data.
func ExtractTable(doc *goquery.Document) (*model.TableSnapshot, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errNoTable
	}

	snap := &model.TableSnapshot{}
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return snap, nil
	}

	rows.First().Find("th").Each(func(_ int, th *goquery.Selection) {
		h := model.HeaderCell{VisibleText: strings.TrimSpace(th.Text())}
		th.Find("span[title]").Each(func(_ int, span *goquery.Selection) {
			if label, ok := span.Attr("title"); ok {
				h.AccessibleLabels = append(h.AccessibleLabels, label)
			}
		})
		snap.Header = append(snap.Header, h)
	})

	rows.Slice(1, goquery.ToEnd).Each(func(_ int, tr *goquery.Selection) {
		var row model.Row
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			c := model.Cell{Text: strings.TrimSpace(td.Text())}
			td.Find("span").Each(func(_ int, span *goquery.Selection) {
				if text := strings.TrimSpace(span.Text()); text != "" {
					c.Parts = append(c.Parts, text)
				}
			})
			row.Cells = append(row.Cells, c)
		})
		snap.Rows = append(snap.Rows, row)
	})
	return snap, nil
}
