// Command broomd runs the broom daemon in the foreground. It is the entry
// point for service managers; interactive use goes through `broom start`,
// which launches the same runtime detached.
package main

import (
	"context"
	"flag"
	"log"

	"broom/internal/config"
	"broom/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		log.Fatalf("broomd: %v", err)
	}
}
