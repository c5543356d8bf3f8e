package dataframe

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/cube2222/octoframe/journal"
	"github.com/cube2222/octoframe/plan"
	"github.com/cube2222/octoframe/serialization"
)

// eager appends an eager node and flushes the whole buffer to the executor.
// On success the buffer is reset (or trimmed to its lazy nodes in RetainContext
// mode) and the checkpoint moves to the new node. On failure the graph and
// checkpoint are exactly as they were before the call. A pending builder error
// fails the call without sending anything and is cleared.
func (df *Dataframe) eager(ctx context.Context, kind plan.Kind, args []string) (Result, error) {
	start := time.Now()
	if df.err != nil {
		// Reported once; the builder is usable again afterwards.
		err := df.err
		df.err = nil
		return Result{}, df.failed(kind, 0, errors.Wrap(err, "rejected earlier operation"), start)
	}

	id, err := df.allocator.Next()
	if err != nil {
		return Result{}, df.failed(kind, 0, err, start)
	}
	node := plan.Node{
		ID:   id,
		Kind: kind,
		Args: args,
	}

	previousLen := df.graph.Len()
	df.graph.Append(node)

	sent, text, err := df.flush(ctx)
	if err != nil {
		df.graph.Truncate(previousLen)
		return Result{}, df.failed(kind, id, err, start)
	}

	switch df.mode {
	case RetainContext:
		df.graph.Retain(id)
	default:
		df.graph.Reset(id)
	}

	df.metrics.ObserveFlush(kind.String(), "ok", time.Since(start))
	df.metrics.SetBuffered(df.graph.Len())
	log.Printf("session %s: flushed %s #%d in %s, checkpoint is now %d", df.session, kind, id, time.Since(start), id)

	if df.journal != nil {
		entry := journal.Entry{
			Session:    df.session,
			Operation:  kind.String(),
			NodeID:     id,
			Checkpoint: df.graph.Checkpoint,
			Graph:      sent,
			Response:   text,
		}
		if err := df.journal.Record(entry); err != nil {
			log.Printf("session %s: couldn't record flush of %s #%d: %s", df.session, kind, id, err)
		}
	}

	return Result{
		Operation: kind,
		NodeID:    id,
		Text:      text,
	}, nil
}

func (df *Dataframe) flush(ctx context.Context) (sent []byte, text string, err error) {
	payload, err := serialization.EncodeGraph(df.graph)
	if err != nil {
		return nil, "", err
	}

	response, err := df.transport.Exchange(ctx, payload)
	if err != nil {
		return nil, "", err
	}

	text, err = serialization.DecodeResponse(response)
	if err != nil {
		return nil, "", err
	}
	return payload, text, nil
}

func (df *Dataframe) failed(kind plan.Kind, id uint64, err error, start time.Time) error {
	flushErr := &FlushError{
		Operation: kind,
		NodeID:    id,
		Kind:      classify(err),
		Err:       err,
	}
	df.metrics.ObserveFlush(kind.String(), flushErr.Kind.String(), time.Since(start))
	log.Printf("session %s: %s", df.session, flushErr)
	return flushErr
}
