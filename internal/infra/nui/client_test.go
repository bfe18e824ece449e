package nui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/deathscreen/internal/domain/message"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantURL string
		wantErr bool
	}{
		{name: "resource name", cfg: Config{ResourceName: "qbx_ambulancejob"}, wantURL: "https://qbx_ambulancejob/"},
		{name: "base url wins", cfg: Config{ResourceName: "x", BaseURL: "http://127.0.0.1:9000/cb"}, wantURL: "http://127.0.0.1:9000/cb/"},
		{name: "nothing configured", cfg: Config{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer c.Close()
			assert.Equal(t, tt.wantURL, c.BaseURL())
		})
	}
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/timerExpired", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "{}", string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Post(context.Background(), message.EndpointTimerExpired))
}

func TestClient_Post_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)
	defer c.Close()

	assert.Error(t, c.Post(context.Background(), message.EndpointRespawnPlayer))
}

func TestClient_Notify(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	c.Notify(message.EndpointSendEMSSignal)
	c.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/sendEMSSignal"}, paths)
}

func TestClient_Notify_FailureSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	c.Notify(message.EndpointStopRespawnHold)
	assert.Less(t, time.Since(start), 20*time.Millisecond, "Notify must not block")

	c.Close()
}

func TestClient_Notify_AfterClose(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)
	c.Close()

	c.Notify(message.EndpointTimerExpired)
	c.Close()
	assert.False(t, called)
}
