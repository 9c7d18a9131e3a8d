/* server_test.go
 * Contains unit tests for the health endpoint
 */

package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vlakddp4/publicbot/api/api"
	"github.com/vlakddp4/publicbot/api/store"
)

func getHealth(t *testing.T, s *Server) (int, healthResponse) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var health healthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	return resp.StatusCode, health
}

type blockingPinger struct{}

func (blockingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// region Config tests

func TestNewServer_DefaultTimeout(t *testing.T) {
	s := NewServer(Config{Addr: ":8080"})
	assert.Equal(t, defaultPingTimeout, s.pingTimeout)

	s = NewServer(Config{PingTimeout: time.Second})
	assert.Equal(t, time.Second, s.pingTimeout)
}

// endregion

// region Health tests

func TestHealth_OK(t *testing.T) {
	status, health := getHealth(t, NewServer(Config{Store: api.NewMockStore()}))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", health.Status)
	assert.Empty(t, health.Error)
}

func TestHealth_StoreDown(t *testing.T) {
	mockStore := api.NewMockStore()
	mockStore.PingError = &store.StorageError{Op: "ping", Err: errors.New("dial tcp 10.0.0.1:5432: connection refused")}

	status, health := getHealth(t, NewServer(Config{Store: mockStore}))

	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", health.Status)
	assert.NotContains(t, health.Error, "10.0.0.1")
}

func TestHealth_PingTimeout(t *testing.T) {
	status, _ := getHealth(t, NewServer(Config{Store: blockingPinger{}, PingTimeout: 10 * time.Millisecond}))

	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestHealth_NoStore(t *testing.T) {
	status, health := getHealth(t, NewServer(Config{}))

	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "no store", health.Error)
}

func TestHealth_UnknownRoute(t *testing.T) {
	resp, err := NewServer(Config{}).App().Test(httptest.NewRequest(fiber.MethodGet, "/participants", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// endregion
