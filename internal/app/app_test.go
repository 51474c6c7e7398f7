package app

import (
	"context"
	"net"
	nethttp "net/http"
	"strconv"
	"testing"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return strconv.Itoa(port)
}

func newMemoryApp(t *testing.T) (*App, string) {
	t.Helper()
	port := freePort(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TOKEN_SECRET", "lifecycle-secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("HTTP_URL", "127.0.0.1")
	t.Setenv("HTTP_PORT", port)
	t.Setenv("RECONCILE_INTERVAL", "10ms")

	cfg, err := config.New()
	require.NoError(t, err)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return a, "http://127.0.0.1:" + port
}

func runInBackground(a *App) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- a.Run()
	}()
	return done
}

func TestApp_StopRightAfterRun(t *testing.T) {
	a, baseURL := newMemoryApp(t)

	done := runInBackground(a)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	_, err := nethttp.Get(baseURL + "/health")
	assert.Error(t, err, "nothing should be listening after Stop")
}

func TestApp_ServesUntilStopped(t *testing.T) {
	a, baseURL := newMemoryApp(t)

	done := runInBackground(a)

	require.Eventually(t, func() bool {
		resp, err := nethttp.Get(baseURL + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == nethttp.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	_, err := nethttp.Get(baseURL + "/health")
	assert.Error(t, err)
}

func TestApp_RunAfterStopDoesNotServe(t *testing.T) {
	a, _ := newMemoryApp(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx))

	assert.NoError(t, a.Run())
}
