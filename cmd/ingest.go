package cmd

import (
	"io"

	"github.com/jaffee/commandeer/cobrafy"
	"github.com/spf13/cobra"
	"github.com/splunkd/splunkd/kafka"
)

// NewIngestCommand wraps kafka.IngestMain in a cobra command.
func NewIngestCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	com, err := cobrafy.Command(kafka.NewIngestMain())
	if err != nil {
		panic(err)
	}
	com.Use = "ingest"
	com.Short = "Consume events from Kafka and submit them to the event receiver."
	return com
}

func init() {
	subcommandFns["ingest"] = NewIngestCommand
}
