package cmd

import (
	"io"

	"github.com/jaffee/commandeer/cobrafy"
	"github.com/spf13/cobra"
	"github.com/splunkd/splunkd/kafka"
)

// NewExportCommand wraps kafka.ExportMain in a cobra command.
func NewExportCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	com, err := cobrafy.Command(kafka.NewExportMain())
	if err != nil {
		panic(err)
	}
	com.Use = "export"
	com.Short = "Run a search job and publish its results to a Kafka topic."
	return com
}

func init() {
	subcommandFns["export"] = NewExportCommand
}
