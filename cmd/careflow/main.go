package main

import (
	"github.com/careflowhq/careflow/adapter/cli"
	"github.com/careflowhq/careflow/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	cli.SetLogger(logger)
	cli.Execute()
}
