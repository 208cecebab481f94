package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/miifit/backend/internal/telemetry/tracing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const defaultClientTimeout = 15 * time.Second

var ErrArticleNotFound = errors.New("article not found")

// Article is one piece of published research.
type Article struct {
	PMID    string   `json:"pmid"`
	Title   string   `json:"title"`
	Journal string   `json:"journal"`
	PubDate string   `json:"pubDate"`
	Authors []string `json:"authors"`
}

// Client queries a PubMed-style eutils API: esearch to find article
// ids for a term, esummary to resolve them.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

func NewClient(apiURL string) *Client {
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultClientTimeout,
		},
	}
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryEntry struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	PubDate string `json:"pubdate"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// Search finds up to limit articles matching the term, most recent
// publications first.
func (c *Client) Search(ctx context.Context, term string, limit int) (_ []Article, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "research.client.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("term", term),
		attribute.Int("limit", limit),
	)

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmax", strconv.Itoa(limit))
	params.Set("sort", "pub_date")
	params.Set("retmode", "json")

	var searchResp esearchResponse
	if err := c.getJSON(ctx, "/esearch.fcgi?"+params.Encode(), &searchResp); err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	if len(searchResp.ESearchResult.IDList) == 0 {
		return []Article{}, nil
	}

	return c.summaries(ctx, searchResp.ESearchResult.IDList)
}

// Summary resolves a single article by its PMID.
func (c *Client) Summary(ctx context.Context, pmid string) (_ *Article, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "research.client.summary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("pmid", pmid))

	articles, err := c.summaries(ctx, []string{pmid})
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, ErrArticleNotFound
	}
	return &articles[0], nil
}

func (c *Client) summaries(ctx context.Context, pmids []string) ([]Article, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "json")

	// the result object keys entries by uid, next to a "uids" index
	var summaryResp struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := c.getJSON(ctx, "/esummary.fcgi?"+params.Encode(), &summaryResp); err != nil {
		return nil, fmt.Errorf("esummary: %w", err)
	}

	articles := make([]Article, 0, len(pmids))
	for _, pmid := range pmids {
		entryJson, ok := summaryResp.Result[pmid]
		if !ok {
			continue
		}
		var entry esummaryEntry
		if err := json.Unmarshal(entryJson, &entry); err != nil {
			return nil, fmt.Errorf("unmarshal esummary entry %s: %w", pmid, err)
		}
		article := Article{
			PMID:    pmid,
			Title:   entry.Title,
			Journal: entry.Source,
			PubDate: entry.PubDate,
			Authors: make([]string, 0, len(entry.Authors)),
		}
		for _, author := range entry.Authors {
			article.Authors = append(article.Authors, author.Name)
		}
		articles = append(articles, article)
	}

	return articles, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
