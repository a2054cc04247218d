package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestTopic(t *testing.T) (*pubsub.Topic, *pstest.Server) {
	t.Helper()
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(ctx, "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	topic, err := client.CreateTopic(ctx, "render-events")
	require.NoError(t, err)
	t.Cleanup(topic.Stop)
	return topic, srv
}

func TestPublishSendsJSON(t *testing.T) {
	t.Parallel()

	topic, srv := newTestTopic(t)
	pub := New(topic)

	id, err := pub.Publish(context.Background(), "render", map[string]string{"product_id": "abc123"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got map[string]string
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, "abc123", got["product_id"])
	require.Equal(t, "render", msgs[0].Attributes["event_type"])
}

func TestPublishUnconfigured(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Publish(context.Background(), "render", "x")
	require.Error(t, err)

	_, err = (&Publisher{}).Publish(context.Background(), "render", "x")
	require.Error(t, err)
}

func TestPublishRejectsUnmarshalable(t *testing.T) {
	t.Parallel()

	topic, _ := newTestTopic(t)
	_, err := New(topic).Publish(context.Background(), "render", make(chan int))
	require.Error(t, err)
}

func TestDialValidation(t *testing.T) {
	t.Parallel()

	_, _, err := Dial(context.Background(), "", "topic")
	require.Error(t, err)
}

func TestCarrier(t *testing.T) {
	t.Parallel()

	c := &pubsubCarrier{attrs: map[string]string{}}
	c.Set("traceparent", "00-abc")
	require.Equal(t, "00-abc", c.Get("traceparent"))
	require.Equal(t, []string{"traceparent"}, c.Keys())
}
