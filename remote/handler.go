// Package remote exposes a running session over Connect RPC so events can be
// emitted and state read from another process.
//
// Messages use protobuf well-known types, so no generated code is needed:
// Emit takes a google.protobuf.Struct {"kind": string, "payload": any},
// State returns the committed state as a google.protobuf.Value and Metrics
// returns the session counters as a google.protobuf.Struct.
//
//	path, handler := remote.NewHandler(session, registry)
//	mux.Handle(path, handler)
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/sunshine/app"
)

const ServiceName = "sunshine.v1.SessionService"

const (
	EmitProcedure    = "/" + ServiceName + "/Emit"
	StateProcedure   = "/" + ServiceName + "/State"
	MetricsProcedure = "/" + ServiceName + "/Metrics"
)

// SessionHeader carries the session ID on every response.
const SessionHeader = "Sunshine-Session"

// NewHandler builds the service handler for s. Only kinds registered in reg
// can be emitted. The returned path is the prefix to mount the handler at.
func NewHandler[S any](s *app.Session[S], reg *Registry, opts ...connect.HandlerOption) (string, http.Handler) {
	svc := &service[S]{session: s, registry: reg}

	mux := http.NewServeMux()
	mux.Handle(EmitProcedure, connect.NewUnaryHandler(EmitProcedure, svc.emit, opts...))
	mux.Handle(StateProcedure, connect.NewUnaryHandler(StateProcedure, svc.state, opts...))
	mux.Handle(MetricsProcedure, connect.NewUnaryHandler(MetricsProcedure, svc.metrics, opts...))

	return "/" + ServiceName + "/", mux
}

type service[S any] struct {
	session  *app.Session[S]
	registry *Registry
}

func (svc *service[S]) emit(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[emptypb.Empty], error) {
	fields := req.Msg.GetFields()

	kind := fields["kind"].GetStringValue()
	if kind == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("kind is required"))
	}

	var payload []byte
	if v, ok := fields["payload"]; ok {
		data, err := protojson.Marshal(v)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		payload = data
	}

	e, err := svc.registry.Decode(kind, payload)
	if err != nil {
		if errors.Is(err, ErrUnknownKind) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := svc.session.Emit(e); err != nil {
		if errors.Is(err, app.ErrSessionClosed) {
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	return respond(svc.session.ID(), &emptypb.Empty{}), nil
}

func (svc *service[S]) state(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Value], error) {
	data, err := json.Marshal(svc.session.CurrentState())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode state: %w", err))
	}

	value := &structpb.Value{}
	if err := protojson.Unmarshal(data, value); err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("convert state: %w", err))
	}

	return respond(svc.session.ID(), value), nil
}

func (svc *service[S]) metrics(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	m := svc.session.Metrics()

	msg, err := structpb.NewStruct(map[string]any{
		"events_admitted":     m.EventsAdmitted,
		"events_dropped":      m.EventsDropped,
		"transitions":         m.Transitions,
		"transition_failures": m.TransitionFailures,
		"async_scheduled":     m.AsyncScheduled,
		"async_completed":     m.AsyncCompleted,
		"async_failed":        m.AsyncFailed,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return respond(svc.session.ID(), msg), nil
}

func respond[T any](sessionID string, msg *T) *connect.Response[T] {
	res := connect.NewResponse(msg)
	res.Header().Set(SessionHeader, sessionID)
	return res
}
