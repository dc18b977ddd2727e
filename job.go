package splunkd

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ExecMode selects how the server dispatches a search job.
type ExecMode string

// Dispatch modes.
const (
	ExecModeNormal   ExecMode = "normal"
	ExecModeBlocking ExecMode = "blocking"
	ExecModeOneshot  ExecMode = "oneshot"
)

// OutputMode selects the rendering of search results.
type OutputMode string

// Result renderings. OutputModeXML is the feed format this package parses.
const (
	OutputModeXML  OutputMode = "xml"
	OutputModeJSON OutputMode = "json"
	OutputModeCSV  OutputMode = "csv"
	OutputModeRaw  OutputMode = "raw"
)

// SortDir orders collection listings.
type SortDir string

// Sort directions.
const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

func init() {
	RegisterEnumNames(map[interface{}]string{
		ExecModeNormal:   "normal",
		ExecModeBlocking: "blocking",
		ExecModeOneshot:  "oneshot",
	})
	RegisterEnumNames(map[interface{}]string{
		OutputModeXML:  "xml",
		OutputModeJSON: "json",
		OutputModeCSV:  "csv",
		OutputModeRaw:  "raw",
	})
	RegisterEnumNames(map[interface{}]string{
		SortAsc:  "asc",
		SortDesc: "desc",
	})
}

// JobArgs are the dispatch parameters for creating a search job. The search
// string itself is passed separately to CreateJob.
type JobArgs struct {
	AutoCancel   *int      `args:"auto_cancel,pos=1,default=0"`
	AutoFinalize *int      `args:"auto_finalize_ec,pos=2,default=0"`
	AutoPause    *int      `args:"auto_pause,pos=3,default=0"`
	EarliestTime *string   `args:"earliest_time,pos=4"`
	LatestTime   *string   `args:"latest_time,pos=5"`
	ExecMode     *ExecMode `args:"exec_mode,pos=6,default=normal"`
	MaxCount     *int      `args:"max_count,pos=7,default=10000"`
	MaxTime      *int      `args:"max_time,pos=8,default=0"`
	Fields       []string  `args:"rf,pos=9"`
	StatusBucket *int      `args:"status_buckets,pos=10,default=0"`
	Timeout      *int      `args:"timeout,pos=11,default=86400"`
}

// NewJobArgs gets JobArgs with the server defaults filled in.
func NewJobArgs() *JobArgs {
	ja := &JobArgs{}
	if err := ApplyDefaults(ja); err != nil {
		panic(err) // tags are wrong, caught by any test touching JobArgs
	}
	return ja
}

// ResultsArgs are the windowing parameters for fetching a job's results.
type ResultsArgs struct {
	Count      *int        `args:"count,pos=1,default=100"`
	Offset     *int        `args:"offset,pos=2,default=0"`
	Search     *string     `args:"search,pos=3"`
	FieldList  []string    `args:"f,pos=4"`
	OutputMode *OutputMode `args:"output_mode,pos=5,default=xml"`
}

// NewResultsArgs gets ResultsArgs with the server defaults filled in.
func NewResultsArgs() *ResultsArgs {
	ra := &ResultsArgs{}
	if err := ApplyDefaults(ra); err != nil {
		panic(err)
	}
	return ra
}

// EventArgs are the windowing parameters for fetching the raw events a job
// scanned, before any transforming commands.
type EventArgs struct {
	Count        *int        `args:"count,pos=1,default=100"`
	Offset       *int        `args:"offset,pos=2,default=0"`
	EarliestTime *string     `args:"earliest_time,pos=3"`
	LatestTime   *string     `args:"latest_time,pos=4"`
	Search       *string     `args:"search,pos=5"`
	FieldList    []string    `args:"f,pos=6"`
	OutputMode   *OutputMode `args:"output_mode,pos=7,default=xml"`
}

// NewEventArgs gets EventArgs with the server defaults filled in.
func NewEventArgs() *EventArgs {
	ea := &EventArgs{}
	if err := ApplyDefaults(ea); err != nil {
		panic(err)
	}
	return ea
}

// Job is a handle on one dispatched search job. State comes from the job's
// entry on the server; call Refresh to update it.
type Job struct {
	svc   *Service
	SID   string
	entry *Entry
}

// CreateJob dispatches a search job and returns a handle on it. The query
// must carry its leading search command (e.g. "search index=main ...").
func (s *Service) CreateJob(ctx context.Context, query string, ja *JobArgs) (*Job, error) {
	args := []Argument{{Name: "search", Value: query}}
	if ja != nil {
		more, err := Enumerate(ja)
		if err != nil {
			return nil, errors.Wrap(err, "serializing job args")
		}
		args = append(args, more...)
	}
	resp, err := s.Post(ctx, "search/jobs", args)
	if err != nil {
		return nil, errors.Wrap(err, "creating job")
	}
	defer resp.Body.Close()
	sid, err := parseSID(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Job{svc: s, SID: sid}, nil
}

// parseSID pulls the sid element out of a job creation response.
func parseSID(r io.Reader) (string, error) {
	rd := NewReader(r)
	ok, err := rd.AdvanceToDocumentElement("response")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", formatErrorf("empty job creation response")
	}
	if err := rd.Next(); err != nil {
		return "", errors.Wrap(err, "entering job creation response")
	}
	for {
		switch rd.Kind() {
		case NodeStart:
			if rd.Name() == "sid" {
				sid, err := rd.ReadString()
				if err != nil {
					return "", err
				}
				return strings.TrimSpace(sid), nil
			}
			if err := rd.Skip(); err != nil {
				return "", err
			}
		case NodeEnd, NodeNone:
			return "", formatErrorf("job creation response has no sid element")
		default:
			if err := rd.next(); err != nil {
				return "", err
			}
		}
	}
}

// Refresh re-reads the job's entry from the server.
func (j *Job) Refresh(ctx context.Context) error {
	resp, err := j.svc.Get(ctx, "search/jobs/"+j.SID, nil)
	if err != nil {
		return errors.Wrapf(err, "refreshing job %v", j.SID)
	}
	defer resp.Body.Close()
	e, err := ReadEntry(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "parsing job %v", j.SID)
	}
	j.entry = e
	return nil
}

// Entry returns the job's last refreshed entry, or nil before the first
// Refresh.
func (j *Job) Entry() *Entry { return j.entry }

func (j *Job) content() *Dict {
	if j.entry == nil {
		return nil
	}
	d, _ := j.entry.Content.(*Dict)
	return d
}

// DispatchState returns the job's state string ("QUEUED", "RUNNING",
// "DONE", ...) as of the last Refresh, or "" if unknown.
func (j *Job) DispatchState() string {
	d := j.content()
	if d == nil {
		return ""
	}
	s, err := d.GetString("DispatchState")
	if err != nil {
		return ""
	}
	return s
}

// Done reports whether the job had finished as of the last Refresh.
func (j *Job) Done() bool {
	d := j.content()
	if d == nil {
		return false
	}
	done, err := d.GetBool("IsDone")
	return err == nil && done
}

// Poll refreshes the job at the given interval until it is done or ctx is
// cancelled.
func (j *Job) Poll(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := j.Refresh(ctx); err != nil {
			return err
		}
		if j.Done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Results fetches the job's results. The caller owns the returned body and
// is responsible for parsing it according to the requested output mode.
func (j *Job) Results(ctx context.Context, ra *ResultsArgs) (io.ReadCloser, error) {
	var args []Argument
	if ra != nil {
		var err error
		args, err = Enumerate(ra)
		if err != nil {
			return nil, errors.Wrap(err, "serializing results args")
		}
	}
	resp, err := j.svc.Get(ctx, "search/jobs/"+j.SID+"/results", args)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching results for job %v", j.SID)
	}
	return resp.Body, nil
}

// Events fetches the raw events the job scanned, as opposed to its
// transformed results. The caller owns the returned body.
func (j *Job) Events(ctx context.Context, ea *EventArgs) (io.ReadCloser, error) {
	var args []Argument
	if ea != nil {
		var err error
		args, err = Enumerate(ea)
		if err != nil {
			return nil, errors.Wrap(err, "serializing event args")
		}
	}
	resp, err := j.svc.Get(ctx, "search/jobs/"+j.SID+"/events", args)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching events for job %v", j.SID)
	}
	return resp.Body, nil
}

// Cancel asks the server to cancel the job.
func (j *Job) Cancel(ctx context.Context) error {
	args := []Argument{{Name: "action", Value: "cancel"}}
	resp, err := j.svc.Post(ctx, "search/jobs/"+j.SID+"/control", args)
	if err != nil {
		return errors.Wrapf(err, "cancelling job %v", j.SID)
	}
	return resp.Body.Close()
}
