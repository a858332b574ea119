package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoller_ReplacesOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Event{
			NewEvent("chest pain", chestAdv, t0),
			NewEvent("fever", feverAdv, t0),
		})
	}))
	defer server.Close()

	store := NewStore()
	p := NewPoller(store, NewHTTPFetcher(server.URL), 0)
	require.NoError(t, p.Poll(context.Background()))

	snap := store.Snapshot()
	require.Len(t, snap.Events, 2)
	assert.Equal(t, "chest pain", snap.Events[0].Text)
	assert.Equal(t, 1, snap.Counts.High)
}

func TestPoller_FailureKeepsPreviousView(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":"1","text":"fever","timestamp":"1:00:00 PM","advice":{"title":"Fever Detected","message":"rest","risk":"elevated"}}]`))
	}))
	defer server.Close()

	store := NewStore()
	p := NewPoller(store, NewHTTPFetcher(server.URL), time.Minute)
	require.NoError(t, p.Poll(context.Background()))
	require.Equal(t, 1, store.Len())

	fail.Store(true)
	assert.Error(t, p.Poll(context.Background()))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "Fever Detected", store.Recent(1)[0].Advisory.Title)

	fail.Store(false)
	assert.NoError(t, p.Poll(context.Background()))
}

func TestPoller_Run(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewPoller(NewStore(), NewHTTPFetcher(server.URL), 10*time.Millisecond).Run(ctx)
	}()

	assert.Eventually(t, func() bool { return hits.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestPoller_OnSync(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"id":"1","text":"cough"},{"id":"2","text":"tired"}]`))
	}))
	defer server.Close()

	type syncCall struct {
		n   int
		err error
	}
	var got []syncCall
	p := NewPoller(NewStore(), NewHTTPFetcher(server.URL), time.Minute)
	p.OnSync(func(n int, err error) { got = append(got, syncCall{n, err}) })

	require.NoError(t, p.Poll(context.Background()))
	fail.Store(true)
	require.Error(t, p.Poll(context.Background()))

	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].n)
	assert.NoError(t, got[0].err)
	assert.Equal(t, 0, got[1].n)
	assert.Error(t, got[1].err)
}
