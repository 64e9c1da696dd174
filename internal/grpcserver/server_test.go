package grpcserver

import (
	"context"
	"net"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"jobboard/scrape-service/internal/scraper"
)

type fakeBatcher struct {
	got  scraper.Request
	resp scraper.Response
	err  error
}

func (f *fakeBatcher) RunBatch(_ context.Context, req scraper.Request) (scraper.Response, error) {
	f.got = req
	return f.resp, f.err
}

// dial starts srv on an in-memory listener and returns a connected client.
func dial(t *testing.T, b Batcher) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	Register(s, NewServer(b, nil))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRunBatch_RoundTrip(t *testing.T) {
	next := 1
	b := &fakeBatcher{resp: scraper.Response{
		Success: true, Inserted: 4, TotalFound: 6, Skipped: 2,
		HasMore: true, NextBatchIndex: &next,
		Progress: "Processed 4 of 54 combinations (batch 1 of 14)",
	}}
	c := NewClient(dial(t, b))

	resp, err := c.RunBatch(context.Background(), scraper.Request{
		SearchTerms: []string{"Training Manager"},
		BatchIndex:  new(int),
	})
	require.NoError(t, err)
	assert.Equal(t, b.resp, resp)
	assert.Equal(t, []string{"Training Manager"}, b.got.SearchTerms)
	require.NotNil(t, b.got.BatchIndex)
	assert.Equal(t, 0, *b.got.BatchIndex)
}

func TestRunBatch_WireKeysMatchHTTP(t *testing.T) {
	b := &fakeBatcher{resp: scraper.Response{Success: true, TotalFound: 2}}
	conn := dial(t, b)

	in, err := structpb.NewStruct(map[string]any{"locations": []any{"Orlando, FL"}, "batchIndex": 0})
	require.NoError(t, err)
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), runBatchRoute, in, out))

	m := out.AsMap()
	assert.Equal(t, float64(2), m["total_found"])
	assert.Contains(t, m, "nextBatchIndex")
	assert.Nil(t, m["nextBatchIndex"])
	assert.Equal(t, []string{"Orlando, FL"}, b.got.Locations)
}

func TestRunBatch_ErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"invalid", errors.Wrap(scraper.ErrInvalidRequest, "batchIndex must be >= 0"), codes.InvalidArgument},
		{"missing config", errors.Mark(errors.New("JSEARCH_API_KEY is required"), scraper.ErrMissingConfig), codes.FailedPrecondition},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(dial(t, &fakeBatcher{err: tc.err})).RunBatch(context.Background(), scraper.Request{})
			require.Error(t, err)
			st, ok := status.FromError(errors.UnwrapAll(err))
			require.True(t, ok)
			assert.Equal(t, tc.want, st.Code())
		})
	}
}

func TestRunBatch_MalformedRequest(t *testing.T) {
	conn := dial(t, &fakeBatcher{})
	in, err := structpb.NewStruct(map[string]any{"batchIndex": "two"})
	require.NoError(t, err)

	err = conn.Invoke(context.Background(), runBatchRoute, in, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
