package main

import (
	"context"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/23skdu/longbow-linalg/internal/cache"
	"github.com/23skdu/longbow-linalg/internal/client"
	"github.com/23skdu/longbow-linalg/internal/matrix"
)

func startFlight(t *testing.T, engine Computer) string {
	t.Helper()
	server := flight.NewServerWithMiddleware(nil)
	server.RegisterFlightService(NewLinalgFlightServer(engine))
	require.NoError(t, server.Init("localhost:0"))
	go func() {
		_ = server.Serve()
	}()
	t.Cleanup(server.Shutdown)
	return server.Addr().String()
}

func TestFlightServer_Compute(t *testing.T) {
	addr := startFlight(t, newTestEngine(t, cache.NewMapCache(4), 1<<20))

	fc, err := client.NewFlightClient(addr)
	require.NoError(t, err)
	defer fc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := rows(t, [][]float64{{1, 2, 3}, {4, 5, 6}})
	got, err := fc.Compute(ctx, "mul", a, matrix.T[float64](a))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{14, 32}, {32, 77}}, got.ToRows())

	got, err = fc.Compute(ctx, "cholesky", rows(t, [][]float64{{4, 2}, {2, 5}}))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 0}, {1, 2}}, got.ToRows())
}

func TestFlightServer_Errors(t *testing.T) {
	addr := startFlight(t, newTestEngine(t, nil, 1<<20))

	fc, err := client.NewFlightClient(addr)
	require.NoError(t, err)
	defer fc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = fc.Compute(ctx, "det", rows(t, [][]float64{{1}}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = fc.Compute(ctx, "inverse", rows(t, [][]float64{{0, 1}, {1, 0}}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = fc.Compute(ctx, "mul", rows(t, [][]float64{{1, 2}}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	// rejections do not trip the breaker
	assert.Equal(t, client.StateClosed, fc.Breaker().State())
}
