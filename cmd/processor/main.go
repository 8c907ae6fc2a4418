package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"

	"listwise/server/internal/models"
)

const maxRetries = 3

var retryDelay = 2 * time.Second

type options struct {
	inputPath  string
	outputPath string
	baseURL    string
	batchSize  int
	reference  string
	timeout    time.Duration
}

// normalizeResponse mirrors the service envelope but keeps each result as
// raw JSON so the output file carries the service bytes untouched.
type normalizeResponse struct {
	Results []json.RawMessage    `json:"results"`
	Errors  []models.RecordError `json:"errors"`
}

type client struct {
	httpClient *http.Client
	endpoint   string
	logger     *logrus.Entry
}

func parseFlags(args []string) (*options, error) {
	defaultURL := os.Getenv("LISTWISE_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.inputPath, "input", "", "path to the JSONL file of raw records (required)")
	fs.StringVar(&opts.outputPath, "output", "", "path for the JSONL file of enriched records (required)")
	fs.StringVar(&opts.baseURL, "url", defaultURL, "base URL of the normalization service")
	fs.IntVar(&opts.batchSize, "batch-size", 50, "records per request")
	fs.StringVar(&opts.reference, "reference", "", "RFC 3339 reference timestamp forwarded to the service")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request timeout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.inputPath == "" || opts.outputPath == "" {
		return nil, fmt.Errorf("both -input and -output are required")
	}
	if opts.batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.batchSize)
	}
	if opts.reference != "" {
		if _, err := time.Parse(time.RFC3339, opts.reference); err != nil {
			return nil, fmt.Errorf("reference must be an RFC 3339 timestamp: %w", err)
		}
	}

	return opts, nil
}

// readRecords loads one JSON record per line. Blank lines are skipped, a
// line that is not valid JSON aborts the run before anything is sent.
func readRecords(r io.Reader) ([]json.RawMessage, error) {
	var records []json.RawMessage

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if !json.Valid([]byte(text)) {
			return nil, fmt.Errorf("input line %d is not valid JSON", line)
		}
		records = append(records, json.RawMessage(text))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return records, nil
}

func chunkRecords(records []json.RawMessage, size int) [][]json.RawMessage {
	var chunks [][]json.RawMessage
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

func normalizeEndpoint(baseURL, reference string) string {
	endpoint := strings.TrimRight(baseURL, "/") + "/normalize"
	if reference != "" {
		endpoint += "?reference=" + url.QueryEscape(reference)
	}
	return endpoint
}

// normalizeChunk POSTs one chunk, retrying transport errors and 5xx
// responses. A 4xx is the caller's mistake and is never retried.
func (c *client) normalizeChunk(chunk []json.RawMessage) (*normalizeResponse, error) {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chunk: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Infof("Retrying chunk, attempt %d of %d", attempt, maxRetries)
			time.Sleep(retryDelay)
		}

		resp, err := c.httpClient.Post(c.endpoint, "application/json", bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			c.logger.Errorf("Request failed: %v", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			c.logger.Errorf("Request failed: %v", lastErr)
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("server returned %s", resp.Status)
			c.logger.Errorf("Request failed: %v", lastErr)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("server rejected chunk: %s: %s", resp.Status, strings.TrimSpace(string(body)))
		}

		var out normalizeResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &out, nil
	}

	return nil, fmt.Errorf("failed to normalize chunk after %d attempts: %w", maxRetries, lastErr)
}

// renderProgress draws one line per finished chunk. The label is padded by
// display width so wide runes in file names keep the bar column aligned.
func renderProgress(name string, processed, total int) string {
	const barWidth = 24

	filled := barWidth
	if total > 0 {
		filled = processed * barWidth / total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	label := runewidth.FillRight(runewidth.Truncate(name, 18, "…"), 18)
	counter := runewidth.FillLeft(fmt.Sprintf("%d/%d", processed, total), 13)
	return fmt.Sprintf("%s [%s]%s", label, bar, counter)
}

func run(opts *options, logger *logrus.Entry, progress io.Writer) error {
	input, err := os.Open(opts.inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer input.Close()

	records, err := readRecords(input)
	if err != nil {
		return err
	}
	logger.Infof("Read %d records from %s", len(records), opts.inputPath)

	output, err := os.Create(opts.outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer output.Close()
	writer := bufio.NewWriter(output)

	c := &client{
		httpClient: &http.Client{Timeout: opts.timeout},
		endpoint:   normalizeEndpoint(opts.baseURL, opts.reference),
		logger:     logger,
	}

	name := filepath.Base(opts.inputPath)
	processed := 0
	written := 0
	rejected := 0

	for _, chunk := range chunkRecords(records, opts.batchSize) {
		resp, err := c.normalizeChunk(chunk)
		if err != nil {
			return err
		}

		for _, result := range resp.Results {
			if _, err := writer.Write(result); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if err := writer.WriteByte('\n'); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}

		// The service reports per-chunk indexes; shift them to the
		// position in the input file.
		for _, recErr := range resp.Errors {
			logger.WithFields(logrus.Fields{
				"index": processed + recErr.Index,
			}).Warnf("Record rejected: %s", recErr.Message)
		}

		processed += len(chunk)
		written += len(resp.Results)
		rejected += len(resp.Errors)
		fmt.Fprintln(progress, renderProgress(name, processed, len(records)))
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	logger.Infof("Processed %d records: %d normalized, %d rejected", processed, written, rejected)
	return nil
}

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		logger.WithError(err).Fatal("Invalid arguments")
	}

	runLogger := logger.WithField("run_id", uuid.NewString())
	if err := run(opts, runLogger, os.Stdout); err != nil {
		runLogger.WithError(err).Fatal("Processing failed")
	}
}
