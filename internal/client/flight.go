// Package client calls a remote linalg Flight service.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/23skdu/longbow-linalg/internal/codec"
	"github.com/23skdu/longbow-linalg/internal/matrix"
)

// ErrCircuitOpen is returned without contacting the server while the
// circuit breaker is open.
var ErrCircuitOpen = errors.New("client: circuit breaker open")

// ErrEmptyResponse is returned when the server closes the exchange without
// sending a result.
var ErrEmptyResponse = errors.New("client: empty response")

// FlightClient runs matrix operations on a remote server via Apache Flight.
type FlightClient struct {
	client  flight.Client
	conn    *grpc.ClientConn
	alloc   memory.Allocator
	breaker *CircuitBreaker
}

// Option configures a FlightClient.
type Option func(*FlightClient)

// WithCircuitBreaker replaces the default breaker (5 failures, 10s).
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(c *FlightClient) { c.breaker = cb }
}

// WithAllocator sets the allocator used for outgoing and incoming batches.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *FlightClient) { c.alloc = mem }
}

// NewFlightClient creates a new Flight client connected to the given address.
func NewFlightClient(addr string, opts ...Option) (*FlightClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	c := &FlightClient{
		client:  flight.NewClientFromConn(conn, nil),
		conn:    conn,
		alloc:   memory.NewGoAllocator(),
		breaker: NewCircuitBreaker(5, 10*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Breaker returns the client's circuit breaker.
func (c *FlightClient) Breaker() *CircuitBreaker { return c.breaker }

// Compute sends op and its operands in one DoExchange call and returns the
// result matrix. Rejected requests (invalid argument, not found) do not
// count against the circuit breaker.
func (c *FlightClient) Compute(ctx context.Context, op string, operands ...matrix.Matrix[float64]) (*matrix.Dense[float64], error) {
	if !c.breaker.Allow() {
		computeCalls.WithLabelValues(op, "rejected").Inc()
		return nil, ErrCircuitOpen
	}
	out, err := c.exchange(ctx, op, operands)
	if err != nil {
		switch status.Code(err) {
		case codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition, codes.ResourceExhausted:
			c.breaker.Success()
		default:
			c.breaker.Failure()
		}
		computeCalls.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("client: %s: %w", op, err)
	}
	c.breaker.Success()
	computeCalls.WithLabelValues(op, "ok").Inc()
	return out, nil
}

func (c *FlightClient) exchange(ctx context.Context, op string, operands []matrix.Matrix[float64]) (*matrix.Dense[float64], error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.client.DoExchange(ctx)
	if err != nil {
		return nil, err
	}

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(codec.Schema), ipc.WithAllocator(c.alloc))
	writer.SetFlightDescriptor(&flight.FlightDescriptor{
		Type: flight.DescriptorCMD,
		Cmd:  []byte(op),
	})

	builder := codec.NewRecordBuilder(c.alloc)
	for _, m := range operands {
		rec := builder.Build(m)
		err := writer.Write(rec)
		rec.Release()
		if err != nil {
			_ = writer.Close()
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(c.alloc))
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyResponse
	}
	if err != nil {
		return nil, err
	}
	defer reader.Release()

	if !reader.Next() {
		if err := reader.Err(); err != nil {
			return nil, err
		}
		return nil, ErrEmptyResponse
	}
	return codec.FromRecord(reader.Record())
}

// Close closes the client connection.
func (c *FlightClient) Close() error {
	return c.conn.Close()
}
