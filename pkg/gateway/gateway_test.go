package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"solfavs/pkg/models"
)

func mintList(n int) []string {
	mints := make([]string, n)
	for i := range mints {
		mints[i] = fmt.Sprintf("Mint%04d%s", i, strings.Repeat("x", 24))
	}
	return mints
}

func TestFetchTokenInfos_BatchingAndMerge(t *testing.T) {
	var requests [][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batch := strings.Split(r.URL.Query().Get("query"), ",")
		requests = append(requests, batch)
		var page []map[string]interface{}
		for _, m := range batch {
			page = append(page, map[string]interface{}{"id": m, "symbol": "TOK"})
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	c := NewClient(WithBaseURLs(server.URL, server.URL))
	infos, err := c.FetchTokenInfos(context.Background(), mintList(150))

	assert.NoError(t, err)
	assert.Len(t, requests, 2, "150 mints against a 100-per-batch limit should issue 2 batches")
	assert.Len(t, requests[0], 100)
	assert.Len(t, requests[1], 50)
	assert.Len(t, infos, 150)
	assert.Equal(t, "TOK", infos[requests[0][0]].Symbol)
}

func TestFetchTokenPrices_BatchingAndMerge(t *testing.T) {
	var batchCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batchCount++
		page := make(map[string]map[string]float64)
		for _, m := range strings.Split(r.URL.Query().Get("ids"), ",") {
			page[m] = map[string]float64{"usdPrice": 1.5}
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	c := NewClient(WithBaseURLs(server.URL, server.URL))
	prices, err := c.FetchTokenPrices(context.Background(), mintList(150))

	assert.NoError(t, err)
	assert.Equal(t, 3, batchCount, "150 mints against a 50-per-batch limit should issue 3 batches")
	assert.Len(t, prices, 150)
	for _, p := range prices {
		assert.Equal(t, 1.5, *p.USDPrice)
		break
	}
}

func TestFetch_HTTPErrorAbortsWithStatus(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURLs(server.URL, server.URL))
	_, err := c.FetchTokenInfos(context.Background(), mintList(150))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Equal(t, 2, calls, "a failing batch should abort the remaining batches")
}

func TestFetch_SingleBatchSkipsDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	// A delay far longer than the test budget proves it is skipped when
	// only one batch is issued.
	c := NewClient(WithBaseURLs(server.URL, server.URL), WithBatchDelay(30e9))
	done := make(chan struct{})
	go func() {
		_, _ = c.FetchTokenInfos(context.Background(), mintList(10))
		close(done)
	}()
	select {
	case <-done:
	case <-contextDeadline(t):
		t.Fatal("single-batch fetch should not sleep")
	}
}

func contextDeadline(t *testing.T) <-chan struct{} {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2e9)
	t.Cleanup(cancel)
	return ctx.Done()
}

func TestFetchTokenInfos_DecodesGraduationVariants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": "A", "graduatedAt": "2025-06-01T12:00:00Z"},
			{"id": "B", "graduatedAt": 1748779200000},
			{"id": "C"}
		]`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURLs(server.URL, server.URL))
	infos, err := c.FetchTokenInfos(context.Background(), []string{"A", "B", "C"})

	assert.NoError(t, err)
	assert.NotNil(t, infos["A"].GraduatedAt)
	assert.Equal(t, models.FlexTime(1748779200000), *infos["B"].GraduatedAt)
	assert.Nil(t, infos["C"].GraduatedAt)
}
