// Package main provides a one-shot CLI that analyzes token addresses
// and prints each report as JSON or Markdown.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bsc-token-sentinel/internal/analysis"
	"bsc-token-sentinel/internal/bsc"
	"bsc-token-sentinel/internal/bscscan"
	"bsc-token-sentinel/internal/reporting"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("BSC_RPC_URL"), "BSC JSON-RPC endpoint")
	bscscanKey := flag.String("bscscan-api-key", os.Getenv("BSCSCAN_API_KEY"), "BscScan API key (empty degrades explorer probes)")
	format := flag.String("format", "json", "Output format: json or markdown")
	timeout := flag.Duration("timeout", 60*time.Second, "Per-address analysis timeout")
	verbose := flag.Bool("verbose", false, "Log analysis progress")

	flag.Parse()

	addresses := flag.Args()
	if len(addresses) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: analyze [flags] <address> [address...]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *format != "json" && *format != "markdown" {
		fmt.Fprintf(os.Stderr, "Unknown format %q (want json or markdown)\n", *format)
		os.Exit(1)
	}

	endpoint := *rpcEndpoint
	if endpoint == "" {
		endpoint = bsc.DefaultEndpoint
	}

	analyzer := analysis.New(analysis.Options{
		Chain:    bsc.NewHTTPClient(endpoint),
		Explorer: bscscan.NewClient(*bscscanKey),
		Verbose:  *verbose,
	})

	exitCode := 0
	for _, address := range addresses {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		report, err := analyzer.Analyze(ctx, address)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error analyzing %s: %v\n", address, err)
			exitCode = 1
			continue
		}

		switch *format {
		case "markdown":
			fmt.Print(reporting.RenderMarkdown(report, time.Now().UnixMilli()))
		default:
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding report for %s: %v\n", address, err)
				exitCode = 1
				continue
			}
			fmt.Println(string(data))
		}
	}

	os.Exit(exitCode)
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
