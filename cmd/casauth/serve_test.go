// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/casauth/internal/auth"
	casgrpc "github.com/holomush/casauth/internal/grpc"
	"github.com/holomush/casauth/internal/observability"
)

var servingAddr = regexp.MustCompile(`Serving on (\S+)`)

// startServe runs the serve command in the background and returns the
// bound gRPC address plus a function that stops it and returns its error.
func startServe(t *testing.T, deps *Deps, args ...string) (string, func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := newRootCmdWithDeps(deps)
	out := &syncBuffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"serve", "--grpc-addr", "127.0.0.1:0"}, args...))

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	var addr string
	require.Eventually(t, func() bool {
		if m := servingAddr.FindStringSubmatch(out.String()); m != nil {
			addr = m[1]
			return true
		}
		return false
	}, 5*time.Second, 10*time.Millisecond, "server never reported its address")

	var stopped bool
	stop := func() error {
		if stopped {
			return nil
		}
		stopped = true
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(10 * time.Second):
			t.Fatal("serve did not shut down")
			return nil
		}
	}
	t.Cleanup(func() { _ = stop() })
	return addr, stop
}

func TestServe_ResolvesOverGRPC(t *testing.T) {
	isolate(t)
	digest, err := cheapHasher().Hash(checkSecret)
	require.NoError(t, err)

	pool := newMockPool(t)
	expectAccount(pool, true, digest)

	addr, stop := startServe(t, poolDeps(pool), "--database-url", testDatabaseURL, "--metrics-addr", "")

	client, err := casgrpc.NewClient(casgrpc.ClientConfig{Address: addr})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cred := &auth.Credential{Username: checkEmail, Secret: checkSecret}
	outcome, err := client.Resolve(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, auth.Success, outcome)
	assert.Equal(t, checkAccount, cred.Username)

	require.NoError(t, stop())
}

func TestServe_ExposesMetricsAndReadiness(t *testing.T) {
	isolate(t)
	pool := newMockPool(t)
	pool.ExpectPing()

	var obs ObservabilityServer
	deps := poolDeps(pool)
	deps.ObservabilityServerFactory = func(_ string, checker observability.ReadinessChecker) ObservabilityServer {
		obs = observability.NewServer("127.0.0.1:0", checker)
		return obs
	}

	_, stop := startServe(t, deps, "--database-url", testDatabaseURL)
	require.NotNil(t, obs)

	base := "http://" + obs.Addr()
	resp, err := http.Get(base + "/healthz/readiness")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")

	require.NoError(t, stop())
}

func TestServe_ListenFailure(t *testing.T) {
	isolate(t)
	pool := newMockPool(t)

	deps := poolDeps(pool)
	deps.ListenerFactory = func(string, string) (net.Listener, error) {
		return nil, errors.New("address already in use")
	}

	res := execute(t, deps, "", "serve", "--database-url", testDatabaseURL, "--metrics-addr", "")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "address already in use")
}

func TestServe_RequiresDatabaseURL(t *testing.T) {
	isolate(t)

	res := execute(t, nil, "", "serve", "--metrics-addr", "")
	require.Error(t, res.err)
	assert.True(t, strings.Contains(res.err.Error(), "database url is required"))
}

// fakeStopper records which stop path ran.
type fakeStopper struct {
	block    chan struct{}
	graceful atomic.Bool
	forced   atomic.Bool
}

func (f *fakeStopper) GracefulStop() {
	f.graceful.Store(true)
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeStopper) Stop() {
	f.forced.Store(true)
	if f.block != nil {
		close(f.block)
	}
}

func TestGracefulStop(t *testing.T) {
	t.Run("drains in time", func(t *testing.T) {
		s := &fakeStopper{}
		gracefulStop(s, time.Second)
		assert.True(t, s.graceful.Load())
		assert.False(t, s.forced.Load())
	})

	t.Run("forces after timeout", func(t *testing.T) {
		s := &fakeStopper{block: make(chan struct{})}
		gracefulStop(s, 10*time.Millisecond)
		assert.True(t, s.graceful.Load())
		assert.True(t, s.forced.Load())
	})
}

func TestMonitorServerErrors(t *testing.T) {
	t.Run("error cancels", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := make(chan error, 1)
		errCh <- errors.New("listener died")

		monitorServerErrors(ctx, cancel, errCh, "test")
		assert.Error(t, ctx.Err())
	})

	t.Run("closed channel does not cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := make(chan error)
		close(errCh)

		monitorServerErrors(ctx, cancel, errCh, "test")
		assert.NoError(t, ctx.Err())
	})

	t.Run("context cancellation exits", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		monitorServerErrors(ctx, cancel, make(chan error), "test")
	})
}
