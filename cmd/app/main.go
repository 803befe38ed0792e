package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"docflow/internal/adapters/cli"
	"docflow/internal/adapters/repl"
	"docflow/internal/app"
	"docflow/internal/config"
	"docflow/internal/core"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	caller := core.Caller{UserID: os.Getenv("DOCFLOW_USER"), Name: os.Getenv("DOCFLOW_USER_NAME")}
	if caller.UserID == "" {
		caller.UserID = "cli"
	}

	args := os.Args[1:]
	var svc app.ApplicationService
	if len(args) > 0 && cli.Offline(args[0]) {
		svc = app.NewAppService(nil, nil, nil, nil, nil, nil)
	} else {
		cfg := config.MustLoad()
		built, closeStore, err := app.NewFromConfig(ctx, cfg)
		if err != nil {
			log.Fatalf("startup: %v", err)
		}
		defer closeStore()
		svc = built
	}

	if len(args) == 0 {
		repl.Run(ctx, svc, caller, bufio.NewReader(os.Stdin), os.Stdout)
		return
	}

	if err := cli.Run(ctx, svc, caller, args, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatalf("%s: %v", args[0], err)
	}
}
