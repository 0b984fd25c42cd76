package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/envelope-sync/internal/cli"
	"github.com/MKhiriev/envelope-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	cmd := cli.NewDocserverCommand(models.NewAppBuildInfo(buildVersion, buildDate, buildCommit))

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
