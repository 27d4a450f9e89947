package grpc

import (
	"context"
	"time"

	"github.com/ChuLiYu/jobqueue/internal/engine"
)

// Server adapts an *engine.Engine to the service's unary RPC methods.
type Server struct {
	Engine *engine.Engine
}

// NewServer wraps an engine for gRPC exposure.
func NewServer(e *engine.Engine) *Server {
	return &Server{Engine: e}
}

func (s *Server) Put(ctx context.Context, req *PutRequest) (*PutResponse, error) {
	state, err := s.Engine.Put(engine.PutArgs{
		Now:       reqNow(ctx),
		Queue:     req.Queue,
		Jid:       req.Jid,
		Klass:     req.Klass,
		Data:      req.Data,
		Delay:     req.Delay,
		Retries:   req.Retries,
		Depends:   req.Depends,
		Resources: req.Resources,
		Priority:  req.Priority,
		Tags:      req.Tags,
	})
	if err != nil {
		return nil, err
	}
	return &PutResponse{Jid: req.Jid, State: string(state)}, nil
}

func (s *Server) Pop(ctx context.Context, req *PopRequest) (*PopResponse, error) {
	jobs, err := s.Engine.Pop(req.Queue, req.Worker, reqNow(ctx), req.Count)
	if err != nil {
		return nil, err
	}
	out := make([]JobView, len(jobs))
	for i, j := range jobs {
		out[i] = JobView{
			Jid: j.Jid, Klass: j.Klass, Data: j.Data, Priority: j.Priority,
			Tags: j.Tags, Retries: j.Retries, Remaining: j.Remaining,
			State: string(j.State), Queue: j.Queue, Worker: j.Worker,
			Expires: j.Expires, Resources: j.Resources,
		}
	}
	return &PopResponse{Jobs: out}, nil
}

func (s *Server) Complete(ctx context.Context, req *CompleteRequest) (*CompleteResponse, error) {
	state, err := s.Engine.Complete(engine.CompleteArgs{
		Now: reqNow(ctx), Jid: req.Jid, Worker: req.Worker, Queue: req.Queue,
		Data: req.Data, Next: req.Next, Delay: req.Delay, Depends: req.Depends,
	})
	if err != nil {
		return nil, err
	}
	return &CompleteResponse{State: string(state)}, nil
}

func (s *Server) Fail(ctx context.Context, req *FailRequest) (*FailResponse, error) {
	err := s.Engine.Fail(engine.FailArgs{
		Now: reqNow(ctx), Jid: req.Jid, Worker: req.Worker,
		Group: req.Group, Message: req.Message, Data: req.Data,
	})
	if err != nil {
		return nil, err
	}
	return &FailResponse{}, nil
}

func (s *Server) Retry(ctx context.Context, req *RetryRequest) (*RetryResponse, error) {
	state, err := s.Engine.Retry(engine.RetryArgs{
		Now: reqNow(ctx), Jid: req.Jid, Queue: req.Queue, Worker: req.Worker,
		Group: req.Group, Message: req.Message, Delay: req.Delay,
	})
	if err != nil {
		return nil, err
	}
	return &RetryResponse{State: string(state)}, nil
}

func (s *Server) Cancel(ctx context.Context, req *CancelRequest) (*CancelResponse, error) {
	canceled, err := s.Engine.Cancel(reqNow(ctx), req.Jids...)
	if err != nil {
		return nil, err
	}
	return &CancelResponse{Canceled: canceled}, nil
}

func (s *Server) Heartbeat(ctx context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error) {
	expires, err := s.Engine.Heartbeat(reqNow(ctx), req.Jid, req.Worker, req.Data)
	if err != nil {
		return nil, err
	}
	return &HeartbeatResponse{Expires: expires}, nil
}

func (s *Server) Priority(ctx context.Context, req *PriorityRequest) (*PriorityResponse, error) {
	state, err := s.Engine.Priority(req.Jid, req.Priority)
	if err != nil {
		return nil, err
	}
	return &PriorityResponse{State: string(state)}, nil
}

func (s *Server) ResourceSet(ctx context.Context, req *ResourceSetRequest) (*ResourceSetResponse, error) {
	if err := s.Engine.ResourceSet(req.Rid, req.Max); err != nil {
		return nil, err
	}
	return &ResourceSetResponse{}, nil
}

func (s *Server) ResourceGet(ctx context.Context, req *ResourceGetRequest) (*ResourceGetResponse, error) {
	res, err := s.Engine.ResourceGet(req.Rid)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &ResourceGetResponse{Rid: req.Rid}, nil
	}
	return &ResourceGetResponse{Rid: res.Rid, Max: res.Max, Locks: res.Locks, Pending: res.Pending}, nil
}

func (s *Server) ResourceUnset(ctx context.Context, req *ResourceUnsetRequest) (*ResourceUnsetResponse, error) {
	if err := s.Engine.ResourceUnset(req.Rid); err != nil {
		return nil, err
	}
	return &ResourceUnsetResponse{}, nil
}

func (s *Server) Log(ctx context.Context, req *LogRequest) (*LogResponse, error) {
	if err := s.Engine.Log(reqNow(ctx), req.Jid, req.What, req.Data); err != nil {
		return nil, err
	}
	return &LogResponse{}, nil
}

func (s *Server) History(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	events, err := s.Engine.History(req.Jid)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEventView, len(events))
	for i, ev := range events {
		out[i] = HistoryEventView{What: ev.What, When: ev.When, Data: ev.Data}
	}
	return &HistoryResponse{Events: out}, nil
}

// reqNow stamps RPCs with wall-clock time; a context deadline never
// substitutes for the engine's notion of "now", which always comes from
// the caller.
func reqNow(ctx context.Context) int64 {
	return time.Now().Unix()
}
