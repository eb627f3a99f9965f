// Command remod wires, drives and inspects reactive modules.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/roach88/remod/internal/cli"
	"github.com/roach88/remod/internal/logging"
)

func main() {
	slog.SetDefault(logging.New(slog.LevelInfo))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "remod:", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
