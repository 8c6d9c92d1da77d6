package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/config"
)

const usage = "expected 'shorten' or 'stats' subcommands"

func main() {
	cfg := config.Load()
	if err := run(context.Background(), os.Args[1:], cfg.BaseURL, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, defaultAPI string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	shortenCmd := flag.NewFlagSet("shorten", flag.ContinueOnError)
	shortenAPI := shortenCmd.String("api", defaultAPI, "base URL of the shortener service")
	originalURL := shortenCmd.String("url", "", "URL to shorten")
	customCode := shortenCmd.String("code", "", "custom short code")
	validity := shortenCmd.Int("validity", 0, "validity in seconds (0 uses the server default)")

	statsCmd := flag.NewFlagSet("stats", flag.ContinueOnError)
	statsAPI := statsCmd.String("api", defaultAPI, "base URL of the shortener service")
	statsCode := statsCmd.String("code", "", "short code to inspect")

	switch args[0] {
	case "shorten":
		if err := shortenCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *originalURL == "" {
			shortenCmd.PrintDefaults()
			return errors.New("-url is required")
		}
		payload := map[string]any{"originalUrl": *originalURL}
		if *customCode != "" {
			payload["customCode"] = *customCode
		}
		if *validity > 0 {
			payload["validityPeriod"] = *validity
		}
		return newAPIClient(*shortenAPI).do(ctx, http.MethodPost, "/shorturls", payload, out)
	case "stats":
		if err := statsCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *statsCode == "" {
			statsCmd.PrintDefaults()
			return errors.New("-code is required")
		}
		return newAPIClient(*statsAPI).do(ctx, http.MethodGet, "/shorturls/"+*statsCode, nil, out)
	default:
		return errors.New(usage)
	}
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// do sends the request and pretty-prints the JSON response. Non-2xx
// responses are returned as errors carrying the server's message.
func (c *apiClient) do(ctx context.Context, method, path string, payload any, out io.Writer) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 300 {
		if m, ok := decoded.(map[string]any); ok {
			if msg, ok := m["error"].(string); ok {
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
			}
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(decoded)
}
