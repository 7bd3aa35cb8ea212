package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sarahckohl/mousechase/api"
	"github.com/sarahckohl/mousechase/cache"
	"github.com/sarahckohl/mousechase/config"
	"github.com/sarahckohl/mousechase/game/ai"
	"github.com/sarahckohl/mousechase/game/chase"
	"github.com/sarahckohl/mousechase/game/clock"
	"github.com/sarahckohl/mousechase/game/event"
	"github.com/sarahckohl/mousechase/game/world"
	"github.com/sarahckohl/mousechase/journal"
	"github.com/sarahckohl/mousechase/resource"
	"github.com/sarahckohl/mousechase/scheduler"
	"github.com/sarahckohl/mousechase/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminKey is the plaintext admin key accepted by every TestServer.
const AdminKey = "integration-admin-key"

// TestServer wraps a real HTTP server around a running room.
type TestServer struct {
	DB        *gorm.DB
	Cache     cache.Cache
	PubSub    cache.PubSub
	Room      *world.Room
	Journal   *journal.Service
	Sched     *scheduler.Scheduler
	Snapshots *world.CacheWriter
	Server    *httptest.Server
	URL       string // http://127.0.0.1:<port>
	Srv       config.ServerConfig
}

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in main.go with a pursuer that never
// notices anything, so mice are only removed by requests.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	hash, err := bcrypt.GenerateFromPassword([]byte(AdminKey), bcrypt.MinCost)
	require.NoError(t, err)
	srvCfg := config.ServerConfig{
		AdminKeyHash:   string(hash),
		TokenSecret:    "integration-test-secret",
		TokenTTL:       time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}

	// ---- Room ----
	loader := resource.NewLoader("../data/level.yaml")
	require.NoError(t, loader.Load())
	drv := clock.NewDriver(nil)
	require.NoError(t, drv.Initialize(60, clock.MustNew(6, 0, 0)))
	jr := journal.New(db, pubsub, logger)
	room, err := world.NewRoom(world.Config{
		Name:      "kitchen",
		Tick:      20 * time.Millisecond,
		Mice:      2,
		Seed:      11,
		SelfSpeed: 4,
		Stopping:  0.1,
		Chase:     chase.Config{MaxSelectAttempts: 50, HideDistance: 100},
		Brain: ai.BrainConfig{
			SlowSpeed: 0.5,
			FastSpeed: 0.5,
		},
		RouteWorkers: 2,
	}, loader.Level, loader.Grid, drv, event.NewBus(logger), jr, logger)
	require.NoError(t, err)
	go room.Run()

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	snapshots := world.NewCacheWriter(room, c, time.Minute)
	store := world.NewClockStore(db)
	sched.AddTicker("snapshot", time.Hour, func() { _ = snapshots.Flush(context.Background()) })
	sched.AddTicker("clock_persist", time.Hour, func() { _ = store.Persist(context.Background(), room) })

	// ---- Gin HTTP Server ----
	ctx, cancel := context.WithCancel(context.Background())
	router := api.NewRouter(ctx, api.Deps{
		Room:   room,
		Events: jr,
		Cache:  c,
		PubSub: pubsub,
		Sched:  sched,
		Server: srvCfg,
		Logger: logger,
	})
	server := httptest.NewServer(router)

	ts := &TestServer{
		DB:        db,
		Cache:     c,
		PubSub:    pubsub,
		Room:      room,
		Journal:   jr,
		Sched:     sched,
		Snapshots: snapshots,
		Server:    server,
		URL:       server.URL,
		Srv:       srvCfg,
	}
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts
}

// Close shuts down the test server and the room. Safe to call twice.
func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Sched.Stop()
	ts.Room.Stop()
	<-ts.Room.Done()
	ts.Journal.Stop(context.Background())
}

// --- HTTP helpers ---

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var bodyReader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bodyReader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Delete sends a DELETE request with optional Bearer token.
func (ts *TestServer) Delete(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// Status closes the body and returns the status code.
func Status(resp *http.Response) int {
	resp.Body.Close()
	return resp.StatusCode
}

// --- Auth helpers ---

// Login exchanges the admin key for a session token.
func (ts *TestServer) Login(t *testing.T) string {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/token", map[string]string{"key": AdminKey}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Token string `json:"token"`
	}
	ReadJSON(t, resp, &result)
	require.NotEmpty(t, result.Token)
	return result.Token
}
