package client

import (
	"context"

	"github.com/qrzlog/qrzlog/client/internal/shardqueue"
)

// executor abstracts the internal async job runner used by InsertAsync and
// AwaitConsistency.
type executor interface {
	Submit(context.Context, string, shardqueue.Job) error
	Stop()
}
