package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eutilsTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
		if r.URL.Query().Get("term") == "nothing matches this" {
			_, _ = w.Write([]byte(`{"esearchresult":{"idlist":[]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"esearchresult":{"idlist":["111","222"]}}`))
	})
	mux.HandleFunc("/esummary.fcgi", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "111,222":
			_, _ = w.Write([]byte(`{"result":{
				"uids":["111","222"],
				"111":{"uid":"111","title":"Protein timing revisited","source":"J Sports Sci",
					"pubdate":"2026 Jul","authors":[{"name":"Kraemer A"},{"name":"Ito B"}]},
				"222":{"uid":"222","title":"Volume landmarks","source":"Sports Med",
					"pubdate":"2026 Jun","authors":[{"name":"Nuno C"}]}
			}}`))
		case "111":
			_, _ = w.Write([]byte(`{"result":{
				"uids":["111"],
				"111":{"uid":"111","title":"Protein timing revisited","source":"J Sports Sci",
					"pubdate":"2026 Jul","authors":[{"name":"Kraemer A"}]}
			}}`))
		default:
			_, _ = w.Write([]byte(`{"result":{"uids":[]}}`))
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Search(t *testing.T) {
	server := eutilsTestServer(t)
	client := NewClient(server.URL)

	articles, err := client.Search(context.Background(), "protein timing", 10)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "111", articles[0].PMID)
	assert.Equal(t, "Protein timing revisited", articles[0].Title)
	assert.Equal(t, "J Sports Sci", articles[0].Journal)
	assert.Equal(t, []string{"Kraemer A", "Ito B"}, articles[0].Authors)
	assert.Equal(t, "222", articles[1].PMID)
}

func TestClient_Search_NoResults(t *testing.T) {
	server := eutilsTestServer(t)
	client := NewClient(server.URL)

	articles, err := client.Search(context.Background(), "nothing matches this", 10)
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.NotNil(t, articles)
}

func TestClient_Summary(t *testing.T) {
	server := eutilsTestServer(t)
	client := NewClient(server.URL)

	article, err := client.Summary(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, "Protein timing revisited", article.Title)
}

func TestClient_Summary_NotFound(t *testing.T) {
	server := eutilsTestServer(t)
	client := NewClient(server.URL)

	_, err := client.Summary(context.Background(), "999")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestClient_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Search(context.Background(), "anything", 5)
	assert.Error(t, err)
}
