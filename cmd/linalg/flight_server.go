package main

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/23skdu/longbow-linalg/internal/codec"
	"github.com/23skdu/longbow-linalg/internal/matrix"
)

// LinalgFlightServer serves operations over Flight DoExchange. The
// descriptor command names the operation; each incoming record batch is
// one operand and the reply is a single batch holding the result.
type LinalgFlightServer struct {
	flight.BaseFlightServer
	engine Computer
	alloc  memory.Allocator
}

func NewLinalgFlightServer(engine Computer) *LinalgFlightServer {
	return &LinalgFlightServer{
		engine: engine,
		alloc:  memory.NewGoAllocator(),
	}
}

func (s *LinalgFlightServer) DoExchange(stream flight.FlightService_DoExchangeServer) error {
	ctx, span := tracer.Start(stream.Context(), "DoExchange")
	defer span.End()

	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.alloc))
	if err != nil {
		return err
	}
	defer reader.Release()

	desc := reader.LatestFlightDescriptor()
	if desc == nil || desc.Type != flight.DescriptorCMD {
		return status.Error(codes.InvalidArgument, "DoExchange requires a command descriptor naming the operation")
	}
	op := string(desc.Cmd)

	var operands []*matrix.Dense[float64]
	for reader.Next() {
		m, err := codec.FromRecord(reader.Record())
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		operands = append(operands, m)
	}
	if err := reader.Err(); err != nil {
		return err
	}
	log.Debug().Str("op", op).Int("operands", len(operands)).Msg("DoExchange received operands")

	out, err := s.engine.Compute(ctx, op, operands...)
	if err != nil {
		span.RecordError(err)
		_, code := errorStatus(err)
		return status.Error(code, err.Error())
	}

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(codec.Schema), ipc.WithAllocator(s.alloc))
	defer writer.Close()
	rec := codec.NewRecordBuilder(s.alloc).Build(out)
	defer rec.Release()
	return writer.Write(rec)
}

func StartFlightServer(addr string, engine Computer) {
	// Create the generic Flight Server which manages the GRPC lifecycle
	server := flight.NewFlightServer()
	server.RegisterFlightService(NewLinalgFlightServer(engine))

	if err := server.Init(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to init Flight server")
	}

	log.Info().Str("addr", addr).Msg("Starting linalg Flight server")
	if err := server.Serve(); err != nil {
		log.Fatal().Err(err).Msg("Flight server failed")
	}
}
