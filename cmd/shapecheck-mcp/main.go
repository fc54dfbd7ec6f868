// Package main serves shapecheck trace analysis over the Model Context
// Protocol.
//
// Usage:
//
//	shapecheck-mcp                                  # stdio transport
//	shapecheck-mcp -mode sse -addr :8080 -path /mcp/sse
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kolkov/shapecheck/internal/mcpserver"
	"github.com/kolkov/shapecheck/shapecheck"
)

func main() {
	// CLI flags
	mode := flag.String("mode", "stdio", "Transport mode: stdio or sse")
	addr := flag.String("addr", ":8080", "HTTP listen address for SSE")
	path := flag.String("path", "/mcp/sse", "HTTP path for SSE connections")
	configFile := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	cfg, err := shapecheck.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// stdout carries the protocol in stdio mode; diagnostics go to stderr.
	logger, err := shapecheck.NewLogger(os.Stderr, cfg)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	s := server.NewMCPServer(
		"shapecheck",
		shapecheck.Version,
		server.WithToolCapabilities(false),
	)
	mcpserver.RegisterTools(s, mcpserver.NewHandlers(cfg, logger))

	switch *mode {
	case "stdio":
		if err := server.ServeStdio(s); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	case "sse":
		sseServer := server.NewSSEServer(s)

		// "/mcp/sse" gets its messages at "/mcp/message".
		ssePath := *path
		messagePath := strings.Replace(ssePath, "/sse", "/message", 1)
		if messagePath == ssePath {
			messagePath = strings.TrimRight(ssePath, "/") + "/message"
		}

		http.Handle(ssePath, sseServer.SSEHandler())
		http.Handle(messagePath, sseServer.MessageHandler())

		log.Printf("Starting SSE server on %s (SSE: %s, Message: %s)", *addr, ssePath, messagePath)
		if err := http.ListenAndServe(*addr, nil); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
}
