package inspector

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/ownership/internal/core/world"
	"github.com/zeusync/ownership/internal/sandbox"
)

func runWorld(t *testing.T) (*world.World, *sandbox.Drifter) {
	t.Helper()
	w := world.New(world.WithTickRate(time.Millisecond))
	d := sandbox.NewDrifter(w.Identities(), 1, 0)
	_, err := w.Spawn(d)
	require.NoError(t, err)
	_, err = w.Spawn(sandbox.NewBeacon(w.Identities(), "b"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w, d
}

func TestEntitiesEndpoint(t *testing.T) {
	w, d := runWorld(t)
	srv := httptest.NewServer(New(w, nil, 0))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/entities")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Len(t, snap.Entities, 2)
	assert.Equal(t, d.ID(), snap.Entities[0].ID)
	assert.Equal(t, sandbox.KindDrifter, snap.Entities[0].Kind)
	assert.EqualValues(t, 1, snap.Entities[0].Owners)
	assert.Equal(t, 2, snap.Stats.Live)
}

func TestEntityEndpoint(t *testing.T) {
	w, d := runWorld(t)
	srv := httptest.NewServer(New(w, nil, 0))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/entities/" + d.ID().String()[1:])
	require.NoError(t, err)
	var info world.EntityInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	assert.Equal(t, d.ID(), info.ID)

	for path, status := range map[string]int{
		"/entities/9999": http.StatusNotFound,
		"/entities/abc":  http.StatusBadRequest,
		"/entities/0":    http.StatusBadRequest,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, status, resp.StatusCode, path)
	}
}

func TestWebSocketFeed(t *testing.T) {
	w, _ := runWorld(t)
	insp := New(w, nil, 5*time.Millisecond)
	srv := httptest.NewServer(insp)
	defer srv.Close()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)

	var first, second Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.NotEmpty(t, first.Session)
	assert.Equal(t, first.Session, second.Session)
	assert.Len(t, second.Entities, 2)
	assert.GreaterOrEqual(t, second.Frame, first.Frame)
	assert.Equal(t, 1, insp.Sessions())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return insp.Sessions() == 0 }, time.Second, 5*time.Millisecond)
}

func TestServeStopsWithContext(t *testing.T) {
	w, _ := runWorld(t)
	insp := New(w, nil, 0)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- insp.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/entities")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("inspector did not stop")
	}
}

func TestSnapshotCanceledWhileLoopBusy(t *testing.T) {
	w, _ := runWorld(t)
	insp := New(w, nil, 0)

	release := make(chan struct{})
	require.NoError(t, w.Post(context.Background(), func(*world.World) { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap, err := insp.snapshot(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, snap.Entities)

	close(release)
	snap, err = insp.snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Entities, 2)
}
