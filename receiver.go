package splunkd

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
)

// ReceiverArgs route a submitted event to an index and tag its origin.
type ReceiverArgs struct {
	Index      *string `args:"index,pos=1"`
	Host       *string `args:"host,pos=2"`
	Source     *string `args:"source,pos=3"`
	SourceType *string `args:"sourcetype,pos=4"`
}

// Submit posts one raw event to the simple receiver endpoint.
func (s *Service) Submit(ctx context.Context, event []byte, ra *ReceiverArgs) error {
	var args []Argument
	if ra != nil {
		var err error
		args, err = Enumerate(ra)
		if err != nil {
			return errors.Wrap(err, "serializing receiver args")
		}
	}
	resp, err := s.PostRaw(ctx, "receivers/simple", args, bytes.NewReader(event))
	if err != nil {
		return errors.Wrap(err, "submitting event")
	}
	return resp.Body.Close()
}
