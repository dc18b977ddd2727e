package cmd

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestBindConfigEnv(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	host := flags.String("host", "localhost", "")
	hosts := flags.StringSlice("kafka-hosts", []string{"localhost:9092"}, "")
	flags.String("config", "", "")

	os.Setenv("SPLUNKD_HOST", "splunk.example.com")
	os.Setenv("SPLUNKD_KAFKA_HOSTS", "k1:9092,k2:9092")
	defer os.Unsetenv("SPLUNKD_HOST")
	defer os.Unsetenv("SPLUNKD_KAFKA_HOSTS")

	if err := bindConfig(viper.New(), flags, "SPLUNKD"); err != nil {
		t.Fatalf("binding config: %v", err)
	}
	if *host != "splunk.example.com" {
		t.Fatalf("host = %q", *host)
	}
	if len(*hosts) != 2 || (*hosts)[0] != "k1:9092" || (*hosts)[1] != "k2:9092" {
		t.Fatalf("kafka-hosts = %v", *hosts)
	}
}

func TestBindConfigFlagWins(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	host := flags.String("host", "localhost", "")
	flags.String("config", "", "")
	if err := flags.Parse([]string{"--host=flaghost"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	os.Setenv("SPLUNKD_HOST", "envhost")
	defer os.Unsetenv("SPLUNKD_HOST")

	if err := bindConfig(viper.New(), flags, "SPLUNKD"); err != nil {
		t.Fatalf("binding config: %v", err)
	}
	if *host != "flaghost" {
		t.Fatalf("host = %q, the command line should win over the environment", *host)
	}
}

func TestBindConfigFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "splunkd-config")
	if err != nil {
		t.Fatalf("making temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "config.toml")
	if err := ioutil.WriteFile(file, []byte("host = \"filehost\"\n"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	host := flags.String("host", "localhost", "")
	flags.String("config", "", "")
	if err := flags.Parse([]string{"--config=" + file}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	if err := bindConfig(viper.New(), flags, "SPLUNKD"); err != nil {
		t.Fatalf("binding config: %v", err)
	}
	if *host != "filehost" {
		t.Fatalf("host = %q, expected the config file value", *host)
	}
}
