package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/splunkd/splunkd"
	"github.com/splunkd/splunkd/sessioncache"
)

// ExportMain holds the options for exporting search results to Kafka.
type ExportMain struct {
	Host       string   `help:"splunkd management host."`
	Port       int      `help:"splunkd management port."`
	Scheme     string   `help:"URL scheme for splunkd (http or https)."`
	Username   string   `help:"Login username."`
	Password   string   `help:"Login password."`
	CacheFile  string   `help:"Path to the session key cache file. Empty disables caching."`
	Query      string   `help:"Search to run, including its leading command, e.g. 'search index=main error'."`
	Earliest   string   `help:"Earliest event time, e.g. -24h."`
	Latest     string   `help:"Latest event time."`
	PollSec    int      `help:"Seconds between job status polls."`
	KafkaHosts []string `help:"Comma separated list of Kafka hosts and ports."`
	Topic      string   `help:"Kafka topic to publish results to."`
}

// NewExportMain returns a new ExportMain with default values.
func NewExportMain() *ExportMain {
	return &ExportMain{
		Host:       "localhost",
		Port:       8089,
		Scheme:     "https",
		Username:   "admin",
		CacheFile:  ".splunkd-sessions",
		PollSec:    2,
		KafkaHosts: []string{"localhost:9092"},
		Topic:      "results",
	}
}

// Run dispatches the search, waits for it to finish, and publishes each
// result as one Kafka message.
func (m *ExportMain) Run() error {
	ctx := context.Background()
	svc, err := sessioncache.Connect(ctx, m.Host, m.Port, m.Scheme, m.Username, m.Password, m.CacheFile)
	if err != nil {
		return err
	}

	ja := splunkd.NewJobArgs()
	if m.Earliest != "" {
		ja.EarliestTime = &m.Earliest
	}
	if m.Latest != "" {
		ja.LatestTime = &m.Latest
	}
	job, err := svc.CreateJob(ctx, m.Query, ja)
	if err != nil {
		return err
	}
	log.Printf("dispatched job %v: %v", job.SID, splunkd.Describe(ja))
	if err := job.Poll(ctx, time.Duration(m.PollSec)*time.Second); err != nil {
		return errors.Wrap(err, "waiting for job")
	}

	ra := splunkd.NewResultsArgs()
	all := 0
	ra.Count = &all // zero means the whole result set
	jsonMode := splunkd.OutputModeJSON
	ra.OutputMode = &jsonMode
	body, err := job.Results(ctx, ra)
	if err != nil {
		return err
	}
	defer body.Close()

	exp := NewExport()
	exp.Hosts = m.KafkaHosts
	exp.Topic = m.Topic
	if err := exp.Open(); err != nil {
		return err
	}
	defer exp.Close()

	var page struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(body).Decode(&page); err != nil {
		return errors.Wrap(err, "decoding results")
	}
	for _, res := range page.Results {
		if err := exp.Write(res); err != nil {
			return err
		}
	}
	log.Printf("exported %d results from job %v to topic %v", len(page.Results), job.SID, m.Topic)
	return nil
}

// IngestMain holds the options for forwarding Kafka events to splunkd's
// event receiver.
type IngestMain struct {
	Host       string   `help:"splunkd management host."`
	Port       int      `help:"splunkd management port."`
	Scheme     string   `help:"URL scheme for splunkd (http or https)."`
	Username   string   `help:"Login username."`
	Password   string   `help:"Login password."`
	CacheFile  string   `help:"Path to the session key cache file. Empty disables caching."`
	Index      string   `help:"Index to submit events to."`
	SourceType string   `help:"Sourcetype tagged onto submitted events."`
	KafkaHosts []string `help:"Comma separated list of Kafka hosts and ports."`
	Topics     []string `help:"Comma separated list of Kafka topics to consume."`
	Group      string   `help:"Kafka consumer group."`
	MaxMsgs    int      `help:"Stop after this many events. Zero means run until interrupted."`
}

// NewIngestMain returns a new IngestMain with default values.
func NewIngestMain() *IngestMain {
	return &IngestMain{
		Host:       "localhost",
		Port:       8089,
		Scheme:     "https",
		Username:   "admin",
		CacheFile:  ".splunkd-sessions",
		Index:      "main",
		SourceType: "kafka",
		KafkaHosts: []string{"localhost:9092"},
		Topics:     []string{"events"},
		Group:      "splunkd-ingest",
	}
}

// Run consumes events from Kafka and submits each one to the receiver
// endpoint.
func (m *IngestMain) Run() error {
	ctx := context.Background()
	svc, err := sessioncache.Connect(ctx, m.Host, m.Port, m.Scheme, m.Username, m.Password, m.CacheFile)
	if err != nil {
		return err
	}

	src := NewSource()
	src.Hosts = m.KafkaHosts
	src.Topics = m.Topics
	src.Group = m.Group
	src.MaxMsgs = m.MaxMsgs
	if err := src.Open(); err != nil {
		return errors.Wrap(err, "opening kafka source")
	}
	defer src.Close()

	ra := &splunkd.ReceiverArgs{Index: &m.Index, SourceType: &m.SourceType}
	n := 0
	for {
		event, err := src.Event()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading event")
		}
		if err := svc.Submit(ctx, event, ra); err != nil {
			return errors.Wrapf(err, "submitting event %d", n)
		}
		n++
		if n%1000 == 0 {
			log.Printf("submitted %d events", n)
		}
	}
	log.Printf("submitted %d events to index %v", n, m.Index)
	return nil
}
