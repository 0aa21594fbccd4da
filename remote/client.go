package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/sunshine/app"
)

// Client calls a session served by NewHandler.
type Client struct {
	emit    *connect.Client[structpb.Struct, emptypb.Empty]
	state   *connect.Client[emptypb.Empty, structpb.Value]
	metrics *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewClient creates a client for the service at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		emit:    connect.NewClient[structpb.Struct, emptypb.Empty](httpClient, baseURL+EmitProcedure, opts...),
		state:   connect.NewClient[emptypb.Empty, structpb.Value](httpClient, baseURL+StateProcedure, opts...),
		metrics: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+MetricsProcedure, opts...),
	}
}

// Emit sends an event of the named kind. payload is encoded as JSON; nil
// sends no payload.
func (c *Client) Emit(ctx context.Context, kind string, payload any) error {
	fields := map[string]*structpb.Value{
		"kind": structpb.NewStringValue(kind),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		value := &structpb.Value{}
		if err := protojson.Unmarshal(data, value); err != nil {
			return fmt.Errorf("convert payload: %w", err)
		}
		fields["payload"] = value
	}

	_, err := c.emit.CallUnary(ctx, connect.NewRequest(&structpb.Struct{Fields: fields}))
	return err
}

// State decodes the session's committed state into v and returns the
// session ID.
func (c *Client) State(ctx context.Context, v any) (string, error) {
	res, err := c.state.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return "", err
	}

	data, err := protojson.Marshal(res.Msg)
	if err != nil {
		return "", fmt.Errorf("convert state: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return "", fmt.Errorf("decode state: %w", err)
	}
	return res.Header().Get(SessionHeader), nil
}

func (c *Client) Metrics(ctx context.Context) (app.MetricsSnapshot, error) {
	res, err := c.metrics.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return app.MetricsSnapshot{}, err
	}

	count := func(name string) int64 {
		return int64(res.Msg.GetFields()[name].GetNumberValue())
	}

	return app.MetricsSnapshot{
		EventsAdmitted:     count("events_admitted"),
		EventsDropped:      count("events_dropped"),
		Transitions:        count("transitions"),
		TransitionFailures: count("transition_failures"),
		AsyncScheduled:     count("async_scheduled"),
		AsyncCompleted:     count("async_completed"),
		AsyncFailed:        count("async_failed"),
	}, nil
}
