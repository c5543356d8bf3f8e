package dataframe

import (
	"context"
	"crypto/rand"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/cube2222/octoframe/metrics"
	"github.com/cube2222/octoframe/plan"
)

// Transport delivers a serialized graph to the executor and returns its single response.
type Transport interface {
	Exchange(ctx context.Context, payload []byte) ([]byte, error)
}

// Dataframe builds an execution graph for a remote executor.
// Lazy operations only buffer nodes; eager operations flush the buffer and
// wait for the executor's answer. A Dataframe is not safe for concurrent use.
type Dataframe struct {
	transport Transport
	allocator *plan.Allocator
	mode      ContextMode
	journal   Recorder
	metrics   *metrics.Collector
	session   string

	graph plan.Graph
	err   error
}

func New(transport Transport, opts ...Option) *Dataframe {
	df := &Dataframe{
		transport: transport,
		graph:     plan.NewGraph(),
	}
	for _, opt := range opts {
		opt(df)
	}
	if df.allocator == nil {
		df.allocator = plan.NewAllocator()
	}
	if df.session == "" {
		df.session = ulid.MustNew(ulid.Now(), rand.Reader).String()
	}
	df.metrics.SetBuffered(df.graph.Len())
	return df
}

// Read buffers a Read of source. An empty source is not buffered; the error is
// returned by the next eager operation.
func (df *Dataframe) Read(source string) *Dataframe {
	if source == "" {
		df.setErr(errors.Wrap(ErrEmptySource, "read"))
		return df
	}
	return df.lazy(plan.Read, []string{source})
}

// Select buffers a projection of the space separated columns.
func (df *Dataframe) Select(columns string) *Dataframe {
	return df.lazy(plan.Select, Tokenize(columns))
}

// Where buffers a filter. The condition is only split into words,
// its meaning is up to the executor.
func (df *Dataframe) Where(condition string) *Dataframe {
	return df.lazy(plan.Where, Tokenize(condition))
}

// Sum flushes the graph with a Sum of column appended and returns the executor's total.
func (df *Dataframe) Sum(ctx context.Context, column string) (Result, error) {
	return df.eager(ctx, plan.Sum, []string{column})
}

// Count flushes the graph with a Count appended and returns the executor's row count.
func (df *Dataframe) Count(ctx context.Context) (Result, error) {
	return df.eager(ctx, plan.Count, []string{})
}

// Fetch flushes the graph with a Fetch appended and returns the materialized content.
func (df *Dataframe) Fetch(ctx context.Context) (Result, error) {
	return df.eager(ctx, plan.Fetch, []string{})
}

// Graph returns a copy of the buffered graph.
func (df *Dataframe) Graph() plan.Graph {
	return df.graph.Clone()
}

// Checkpoint returns the id of the last node the executor has run, or 0.
func (df *Dataframe) Checkpoint() uint64 {
	return df.graph.Checkpoint
}

func (df *Dataframe) Session() string {
	return df.session
}

func (df *Dataframe) Mode() ContextMode {
	return df.mode
}

// Err returns the pending builder error, if any.
func (df *Dataframe) Err() error {
	return df.err
}

func (df *Dataframe) lazy(kind plan.Kind, args []string) *Dataframe {
	id, err := df.allocator.Next()
	if err != nil {
		df.setErr(&FlushError{Operation: kind, Kind: AllocationError, Err: err})
		return df
	}
	df.graph.Append(plan.Node{
		ID:   id,
		Kind: kind,
		Args: args,
	})
	df.metrics.SetBuffered(df.graph.Len())
	return df
}

func (df *Dataframe) setErr(err error) {
	if df.err == nil {
		df.err = err
	}
}

// Tokenize splits select columns and where conditions into node arguments.
// It splits on every single space, so repeated spaces yield empty tokens.
func Tokenize(s string) []string {
	return strings.Split(s, " ")
}

// Result is the executor's answer to an eager operation.
type Result struct {
	Operation plan.Kind
	NodeID    uint64
	Text      string
}

var ErrNotNumeric = errors.New("response is not a number")

func (r Result) notNumeric() error {
	return &FlushError{
		Operation: r.Operation,
		NodeID:    r.NodeID,
		Kind:      ProtocolError,
		Err:       errors.Wrapf(ErrNotNumeric, "%q", r.Text),
	}
}

func (r Result) String() string {
	return r.Text
}

func (r Result) Int() (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(r.Text), 10, 64)
	if err != nil {
		return 0, r.notNumeric()
	}
	return n, nil
}

func (r Result) Float() (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(r.Text), 64)
	if err != nil {
		return 0, r.notNumeric()
	}
	return f, nil
}
