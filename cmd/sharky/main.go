package main

import (
	"context"
	"os"

	"github.com/sharky-compress/sharky/pkg/cmd"
	"github.com/sharky-compress/sharky/pkg/log"
)

func main() {
	if err := cmd.GetRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Error(err)
		os.Exit(cmd.ExitCode(err))
	}
}
