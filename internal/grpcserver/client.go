package grpcserver

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"jobboard/scrape-service/internal/scraper"
)

// Client calls a remote ScrapeService. It satisfies scraper.BatchRunner,
// so a Runner can drive the resumption loop against a deployed service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an open connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// RunBatch invokes RunBatch on the remote service.
func (c *Client) RunBatch(ctx context.Context, req scraper.Request) (scraper.Response, error) {
	var resp scraper.Response

	in, err := toStruct(req)
	if err != nil {
		return resp, errors.Wrap(err, "encode request")
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, runBatchRoute, in, out); err != nil {
		return resp, errors.Wrap(err, "RunBatch")
	}
	if err := fromStruct(out, &resp); err != nil {
		return resp, errors.Wrap(err, "decode response")
	}
	return resp, nil
}
