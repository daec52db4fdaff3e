package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RefreshIndex forces Elasticsearch to make just-indexed documents
// visible to searches.
func RefreshIndex(t *testing.T, address, index string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/%s/_refresh", address, index), http.NoBody)
	require.NoError(t, err)
	req.SetBasicAuth("elastic", ElasticsearchPassword)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "failed to refresh index %s", index)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "refresh of index %s failed", index)
}

// AssertDocumentCount checks that an index holds the expected number
// of documents.
func AssertDocumentCount(t *testing.T, address, index string, expected int) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("%s/%s/_count", address, index), http.NoBody)
	require.NoError(t, err)
	req.SetBasicAuth("elastic", ElasticsearchPassword)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "failed to count documents in index %s", index)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "count on index %s failed", index)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, expected, body.Count, "index %s should have %d documents", index, expected)
}
