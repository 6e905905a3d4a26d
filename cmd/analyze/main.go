package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/healthvault/backend/internal/ai"
	"github.com/healthvault/backend/internal/analysis"
	"github.com/healthvault/backend/internal/storage"
	"github.com/healthvault/backend/pkg/model"
	"go.uber.org/zap"
)

// analyze runs the vitals analysis pipeline on a JSON snapshot file
// and prints the result. Without a GEMINI_API_KEY it produces the
// rule-based fallback result, which makes it useful for inspecting
// degraded-mode output.
func main() {
	var (
		inputPath    = flag.String("input", "", "path to a vitals snapshot JSON file")
		previousPath = flag.String("previous", "", "optional path to the previous snapshot JSON file")
		timeout      = flag.Duration("timeout", 2*time.Minute, "overall analysis timeout")
	)
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -input snapshot.json [-previous previous.json]")
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	snapshot, err := readSnapshot(*inputPath)
	if err != nil {
		logger.Fatal("failed to read snapshot", zap.Error(err))
	}

	var previous *model.VitalsSnapshot
	if *previousPath != "" {
		previous, err = readSnapshot(*previousPath)
		if err != nil {
			logger.Fatal("failed to read previous snapshot", zap.Error(err))
		}
	}

	var completer analysis.Completer
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		baseURL := os.Getenv("AI_BASE_URL")
		if baseURL == "" {
			baseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
		}
		client, err := ai.NewClient(baseURL, apiKey, logger)
		if err != nil {
			logger.Fatal("failed to initialize model client", zap.Error(err))
		}
		completer = client
	} else {
		logger.Warn("GEMINI_API_KEY not set, using rule-based fallback")
	}

	svc := analysis.NewService(completer, storage.NewHTTPDownloader(logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result := svc.AnalyzeVitals(ctx, snapshot, previous)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("failed to encode result", zap.Error(err))
	}

	fmt.Println(string(out))
}

// readSnapshot loads one vitals snapshot from a JSON file
func readSnapshot(path string) (*model.VitalsSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snapshot model.VitalsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}

	return &snapshot, nil
}
