package cmd

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/jaffee/commandeer/cobrafy"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/splunkd/splunkd"
	"github.com/splunkd/splunkd/sessioncache"
)

// SearchMain holds the config for the search command.
type SearchMain struct {
	Host       string `help:"splunkd management host."`
	Port       int    `help:"splunkd management port."`
	Scheme     string `help:"URL scheme for splunkd (http or https)."`
	Username   string `help:"Login username."`
	Password   string `help:"Login password."`
	CacheFile  string `help:"Path to the session key cache file. Empty disables caching."`
	Query      string `help:"Search to run, including its leading command, e.g. 'search index=main error'."`
	Earliest   string `help:"Earliest event time, e.g. -24h."`
	Latest     string `help:"Latest event time."`
	PollSec    int    `help:"Seconds between job status polls."`
	Count      int    `help:"Maximum number of results to print. Zero means all."`
	OutputMode string `help:"Result rendering: xml, json, csv or raw."`
}

// NewSearchMain gets a new SearchMain with default values.
func NewSearchMain() *SearchMain {
	return &SearchMain{
		Host:       "localhost",
		Port:       8089,
		Scheme:     "https",
		Username:   "admin",
		CacheFile:  ".splunkd-sessions",
		PollSec:    2,
		Count:      100,
		OutputMode: "json",
	}
}

// Run dispatches the search, waits for it to finish, and copies the results
// to stdout.
func (m *SearchMain) Run() error {
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
	log.Printf("dispatched job %v", job.SID)
	if err := job.Poll(ctx, time.Duration(m.PollSec)*time.Second); err != nil {
		return errors.Wrap(err, "waiting for job")
	}

	ra := splunkd.NewResultsArgs()
	ra.Count = &m.Count
	om := splunkd.OutputMode(m.OutputMode)
	ra.OutputMode = &om
	body, err := job.Results(ctx, ra)
	if err != nil {
		return err
	}
	defer body.Close()
	_, err = io.Copy(os.Stdout, body)
	return errors.Wrap(err, "copying results")
}

// NewSearchCommand wraps SearchMain in a cobra command.
func NewSearchCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	com, err := cobrafy.Command(NewSearchMain())
	if err != nil {
		panic(err)
	}
	com.Use = "search"
	com.Short = "Run a search job and print its results."
	return com
}

func init() {
	subcommandFns["search"] = NewSearchCommand
}
