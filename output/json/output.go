package json

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/cube2222/octoframe/journal"
	"github.com/cube2222/octoframe/output"
	"github.com/cube2222/octoframe/plan"
	"github.com/cube2222/octoframe/serialization"
)

type Output struct {
	w   io.Writer
	enc *json.Encoder
}

func NewOutput(w io.Writer) output.Output {
	return &Output{
		w:   w,
		enc: json.NewEncoder(w),
	}
}

// WriteGraph writes the graph exactly as it would be sent to the executor.
func (o *Output) WriteGraph(g plan.Graph) error {
	data, err := serialization.EncodeGraph(g)
	if err != nil {
		return err
	}
	if _, err := o.w.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "couldn't write graph")
	}
	return nil
}

// WriteEntries writes one JSON object per line.
func (o *Output) WriteEntries(entries []journal.Entry) error {
	for i := range entries {
		if err := o.enc.Encode(&entries[i]); err != nil {
			return errors.Wrap(err, "couldn't encode journal entry")
		}
	}
	return nil
}
