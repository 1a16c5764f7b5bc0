// Command telemetry-ingest consumes raw and aggregated network telemetry from the message
// bus, stores it in the time-series and analytical backends and serves read queries.
package main

import (
	"flag"
	"os"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/config"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.PathEnv), "path to the YAML configuration file")
	flag.Parse()

	fx.New(options(*configPath)).Run()
}
