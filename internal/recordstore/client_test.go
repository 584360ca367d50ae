package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/fundgest/internal/errs"
)

// fakeStore is an in-memory stand-in for the record store API.
type fakeStore struct {
	mu    sync.Mutex
	nodes map[string]json.RawMessage
	links []linkRequest
	auth  []string
}

func newFakeStore() *fakeStore { return &fakeStore{nodes: map[string]json.RawMessage{}} }

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	if r.URL.Path == "/links" {
		var l linkRequest
		_ = json.NewDecoder(r.Body).Decode(&l)
		f.links = append(f.links, l)
		w.WriteHeader(http.StatusCreated)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	switch r.Method {
	case http.MethodPut:
		var req nodeRequest
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		v, _ := json.Marshal(req.Value)
		f.nodes[key] = v
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if prefix, ok := strings.CutSuffix(key, "/*"); ok {
			var nodes []nodeResponse
			for k, v := range f.nodes {
				if strings.HasPrefix(k, prefix+"/") {
					nodes = append(nodes, nodeResponse{Key: k, Value: v})
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})
			return
		}
		v, ok := f.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(nodeResponse{Key: key, Value: v})
	case http.MethodDelete:
		if _, ok := f.nodes[key]; !ok {
			http.NotFound(w, r)
			return
		}
		delete(f.nodes, key)
		w.WriteHeader(http.StatusNoContent)
	}
}

func TestPutGetListDelete(t *testing.T) {
	fake := newFakeStore()
	srv := httptest.NewServer(fake)
	defer srv.Close()
	c := NewClient(srv.URL+"/", "secret")
	defer c.Close()
	ctx := context.Background()

	key, err := c.PutOutput(ctx, StoredOutput{
		Dataset: "Contingency",
		Name:    "2025-03-03 Agenda",
		Source:  "2025-03-03 ficomm.txt",
		Columns: []string{"Entity Name"},
		Rows:    [][]string{{"Club A"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "fundgest/outputs/contingency/2025-03-03-agenda", key)
	require.Len(t, fake.links, 1)
	assert.Equal(t, SourceKey("2025-03-03 ficomm.txt"), fake.links[0].From)
	assert.Equal(t, key, fake.links[0].To)
	for _, a := range fake.auth {
		assert.Equal(t, "Bearer secret", a)
	}

	got, err := c.GetOutput(ctx, "Contingency", "2025-03-03 Agenda")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Club A"}}, got.Rows)
	assert.False(t, got.StoredAt.IsZero())

	_, err = c.PutOutput(ctx, StoredOutput{Dataset: "OASIS", Name: "OASIS"})
	require.NoError(t, err)

	refs, err := c.ListOutputs(ctx, "contingency", 10)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "2025-03-03 Agenda", refs[0].Name)

	all, err := c.ListOutputs(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, c.DeleteOutput(ctx, "Contingency", "2025-03-03 Agenda"))
	_, err = c.GetOutput(ctx, "Contingency", "2025-03-03 Agenda")
	assert.True(t, errs.IsNotFound(err))
	assert.True(t, errs.IsNotFound(c.DeleteOutput(ctx, "Contingency", "2025-03-03 Agenda")))
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "busy", code)
		}))
		c := NewClient(srv.URL, "k")
		_, err := c.PutOutput(context.Background(), StoredOutput{Dataset: "ABSA", Name: "ABSA"})
		var re *RetryableError
		require.True(t, errors.As(err, &re), "status %d", code)
		assert.Equal(t, code, re.StatusCode)
		srv.Close()
	}
}

func TestClientErrorNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").PutOutput(context.Background(), StoredOutput{Dataset: "ABSA", Name: "ABSA"})
	require.Error(t, err)
	var re *RetryableError
	assert.False(t, errors.As(err, &re))
	assert.Contains(t, err.Error(), "status 400")
}

func TestNetworkErrorRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url, "k").DeleteOutput(context.Background(), "ABSA", "ABSA")
	var re *RetryableError
	assert.True(t, errors.As(err, &re))
}

func TestOutputKeySlugs(t *testing.T) {
	assert.Equal(t, "fundgest/outputs/fr/fr-clean-2025-03-03", OutputKey("FR", "FR_clean_2025-03-03"))
	assert.Equal(t, "fundgest/outputs/unnamed/unnamed", OutputKey("", "***"))
}
