package grpc

import (
	"context"
	"net"

	ggrpc "google.golang.org/grpc"
)

// ServiceDesc is hand-registered rather than generated by protoc: each
// handler decodes into the concrete request struct from messages.go via the
// codec registered in codec.go, calls the matching Server method, and
// returns the response struct for the codec to encode back out.
var ServiceDesc = ggrpc.ServiceDesc{
	ServiceName: "jobqueue.v1.JobQueue",
	HandlerType: (*any)(nil),
	Methods: []ggrpc.MethodDesc{
		unaryMethod("Put", func(s *Server, ctx context.Context, req *PutRequest) (any, error) { return s.Put(ctx, req) }),
		unaryMethod("Pop", func(s *Server, ctx context.Context, req *PopRequest) (any, error) { return s.Pop(ctx, req) }),
		unaryMethod("Complete", func(s *Server, ctx context.Context, req *CompleteRequest) (any, error) { return s.Complete(ctx, req) }),
		unaryMethod("Fail", func(s *Server, ctx context.Context, req *FailRequest) (any, error) { return s.Fail(ctx, req) }),
		unaryMethod("Retry", func(s *Server, ctx context.Context, req *RetryRequest) (any, error) { return s.Retry(ctx, req) }),
		unaryMethod("Cancel", func(s *Server, ctx context.Context, req *CancelRequest) (any, error) { return s.Cancel(ctx, req) }),
		unaryMethod("Heartbeat", func(s *Server, ctx context.Context, req *HeartbeatRequest) (any, error) { return s.Heartbeat(ctx, req) }),
		unaryMethod("Priority", func(s *Server, ctx context.Context, req *PriorityRequest) (any, error) { return s.Priority(ctx, req) }),
		unaryMethod("ResourceSet", func(s *Server, ctx context.Context, req *ResourceSetRequest) (any, error) { return s.ResourceSet(ctx, req) }),
		unaryMethod("ResourceGet", func(s *Server, ctx context.Context, req *ResourceGetRequest) (any, error) { return s.ResourceGet(ctx, req) }),
		unaryMethod("ResourceUnset", func(s *Server, ctx context.Context, req *ResourceUnsetRequest) (any, error) { return s.ResourceUnset(ctx, req) }),
		unaryMethod("Log", func(s *Server, ctx context.Context, req *LogRequest) (any, error) { return s.Log(ctx, req) }),
		unaryMethod("History", func(s *Server, ctx context.Context, req *HistoryRequest) (any, error) { return s.History(ctx, req) }),
	},
	Streams:  []ggrpc.StreamDesc{},
	Metadata: "jobqueue/v1/jobqueue.proto",
}

// unaryMethod builds a ggrpc.MethodDesc for one verb, generic over its
// request type so each verb only has to supply the typed call above.
func unaryMethod[Req any](name string, call func(*Server, context.Context, *Req) (any, error)) ggrpc.MethodDesc {
	return ggrpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor ggrpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			s := srv.(*Server)
			if interceptor == nil {
				return call(s, ctx, req)
			}
			info := &ggrpc.UnaryServerInfo{Server: s, FullMethod: ServiceDesc.ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}

// RegisterServer attaches srv's handlers to an *ggrpc.Server under the
// hand-registered ServiceDesc.
func RegisterServer(gs *ggrpc.Server, srv *Server) {
	gs.RegisterService(&ServiceDesc, srv)
}

// Serve starts a gRPC server forcing the JSON codec (see codec.go) on addr,
// blocking until it stops or errors.
func Serve(addr string, srv *Server) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	gs := ggrpc.NewServer(ggrpc.ForceServerCodec(jsonCodec{}))
	RegisterServer(gs, srv)
	return gs.Serve(lis)
}
