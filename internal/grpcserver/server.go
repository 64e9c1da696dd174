// Package grpcserver exposes the batch coordinator over gRPC.
//
// The service carries google.protobuf.Struct messages with the same keys
// as the HTTP body and response, so no generated stubs are needed:
//
//	scrape.v1.ScrapeService/RunBatch(Struct) returns (Struct)
//
// It handles only transport concerns: message conversion and error mapping.
package grpcserver

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"jobboard/scrape-service/internal/scraper"
)

const (
	ServiceName   = "scrape.v1.ScrapeService"
	runBatchRoute = "/" + ServiceName + "/RunBatch"
)

// ScrapeServer is the server API for ScrapeService.
type ScrapeServer interface {
	RunBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes ScrapeService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScrapeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunBatch", Handler: runBatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scrape/v1/scrape.proto",
}

// Register mounts srv on s.
func Register(s grpc.ServiceRegistrar, srv ScrapeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func runBatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScrapeServer).RunBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: runBatchRoute}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScrapeServer).RunBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Batcher runs one batch window.
type Batcher interface {
	RunBatch(ctx context.Context, req scraper.Request) (scraper.Response, error)
}

// Server implements ScrapeServer.
type Server struct {
	batches Batcher
	log     *zap.Logger
}

// NewServer constructs a gRPC Server backed by batches.
func NewServer(batches Batcher, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{batches: batches, log: log.Named("grpc")}
}

// ─── RPC implementations ────────────────────────────────────────────────────

// RunBatch runs one batch window.
func (s *Server) RunBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req scraper.Request
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}

	resp, err := s.batches.RunBatch(ctx, req)
	if err != nil {
		if code := codeFor(err); code == codes.Internal || code == codes.FailedPrecondition {
			s.log.Error("scrape invocation failed", zap.Error(err))
		}
		return nil, toGRPCError(err)
	}

	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return out, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, scraper.ErrInvalidRequest):
		return codes.InvalidArgument
	case errors.Is(err, scraper.ErrMissingConfig):
		return codes.FailedPrecondition
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	code := codeFor(err)
	if code == codes.Internal {
		return status.Error(code, "internal server error")
	}
	return status.Error(code, err.Error())
}

// toStruct converts v to a Struct through its JSON form so the keys match
// the HTTP wire format.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "unmarshal")
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, errors.Wrap(err, "new struct")
	}
	return s, nil
}

func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	return errors.Wrap(json.Unmarshal(raw, v), "unmarshal")
}
