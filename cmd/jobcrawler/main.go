package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/LouYuanbo1/jobcrawler/cmd/jobcrawler/commands"
)

func main() {
	// Ctrl+C 时取消正在进行的步骤,已采集的记录仍会写出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	commands.ExecuteContext(ctx)
}
