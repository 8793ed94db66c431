package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/telegrab/telegrab/internal/app"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("TELEGRAB_CONFIG"), "path to the YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("telegrab v%s\n", version)
		return
	}

	ctx := context.Background()
	a, err := app.New(ctx, *configPath)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	a.Run(ctx)
}
