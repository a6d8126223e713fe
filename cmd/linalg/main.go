package main

import (
	"context"
	"flag"
	"os"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/23skdu/longbow-linalg/internal/cache"
	"github.com/23skdu/longbow-linalg/internal/par"
	"github.com/23skdu/longbow-linalg/internal/workers"
)

var (
	mode         = flag.String("mode", "bench", "Run mode (bench, serve)")
	size         = flag.Int("n", 1200, "Matrix size for bench mode")
	blockSize    = flag.Int("block", par.DefaultBlockSize, "Block edge for the parallel constructor")
	mulCutoff    = flag.Int("cutoff", par.DefaultMulCutoff, "Operand area at or below which the parallel multiply stops splitting")
	cholBlock    = flag.Int("chol-block", 64, "Block size below which the blocked Cholesky runs sequentially")
	numWorkers   = flag.Int("workers", 0, "Maximum concurrent worker goroutines (0 = NumCPU, -1 = unlimited)")
	listenAddr   = flag.String("listen", ":8080", "Address to listen on for HTTP Server in serve mode")
	flightAddr   = flag.String("flight", "", "Address to listen on for Flight Server (e.g. :9090)")
	maxCells     = flag.Int64("max-cells", 1<<24, "Maximum number of operand cells processed concurrently")
	cacheEntries = flag.Int("cache-entries", 64, "Maximum number of cached inverse/cholesky results (0 disables)")
	enableOTel   = flag.Bool("otel", false, "Enable OpenTelemetry tracing (stdout)")
	cpuProfile   = flag.String("cpuprofile", "", "Write cpu profile to file")
	logLevel     = flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	verifyFlag   = flag.Bool("verify", false, "Check benchmark results against gonum")
	seed         = flag.Uint64("seed", 1, "Random seed for bench mode")
	dtype        = flag.String("dtype", "float64", "Element type for bench mode (float64, float32)")
)

func main() {
	// Initialize logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", *logLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	if *enableOTel {
		shutdown, err := initTracer()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer shutdown(context.Background())
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create CPU profile file")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("Could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	exec, err := newExecutor()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid executor configuration")
	}

	switch *mode {
	case "serve":
		var c cache.ResultCache
		if *cacheEntries > 0 {
			c = cache.NewMapCache(*cacheEntries)
		}
		engine := NewEngine(exec, c, *maxCells)
		log.Info().Int64("max_cells", *maxCells).Int("cache_entries", *cacheEntries).Msg("Cell admission control")

		if *flightAddr != "" {
			go StartFlightServer(*flightAddr, engine)
		}
		startServer(*listenAddr, engine)

	case "bench":
		ctx := log.Logger.WithContext(context.Background())
		cfg := benchConfig{n: *size, seed: *seed, cholBlock: *cholBlock, verify: *verifyFlag}
		switch *dtype {
		case "float64":
			err = runBench[float64](ctx, exec, cfg)
		case "float32":
			err = runBench[float32](ctx, exec, cfg)
		default:
			log.Fatal().Str("dtype", *dtype).Msg("Unsupported dtype")
		}
		if err != nil {
			log.Error().Err(err).Msg("Benchmark failed")
			pprof.StopCPUProfile()
			os.Exit(1)
		}

	default:
		log.Fatal().Str("mode", *mode).Msg("Unknown mode")
	}
}

func newExecutor() (*par.Executor, error) {
	poolOpts := []workers.Option{workers.WithLogger(log.Logger)}
	if *numWorkers != 0 {
		poolOpts = append(poolOpts, workers.WithMaxParallelism(*numWorkers))
	}
	return par.NewExecutor(
		par.WithPool(workers.New(poolOpts...)),
		par.WithBlockSize(*blockSize),
		par.WithMulCutoff(*mulCutoff),
		par.WithCholeskyBlockSize(*cholBlock),
		par.WithLogger(log.Logger),
	)
}

func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("linalg"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
