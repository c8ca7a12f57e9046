package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/df07/go-progressive-raymarcher/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenesDir := flag.String("scenes", "../scenes", "Directory with YAML/TOML scene files")
	verbose := flag.Bool("v", false, "Log at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Create and start web server
	webServer := server.NewServer(*port, *scenesDir)

	slog.Info("Progressive Raymarcher Web Server")
	slog.Info("visit the server to start rendering", "url", fmt.Sprintf("http://localhost:%d", *port))

	if err := webServer.Start(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
