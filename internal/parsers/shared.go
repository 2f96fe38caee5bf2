// Package parsers turns raw client session files into unified usage
// messages. Each client owns one file format; Parse dispatches on the
// client id. Corrupt records and unreadable files are skipped, never
// surfaced.
package parsers

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tokscale/tokscale/internal/scan"
	"github.com/tokscale/tokscale/internal/usage"
)

const maxScannerBufferSize = 10 * 1024 * 1024

// Input is everything a client parser needs for one run.
type Input struct {
	Files      []scan.File
	OpenCodeDB string
}

// ParseFunc decodes all of one client's discovered files.
type ParseFunc func(ctx context.Context, in Input) []usage.Message

var byClient = map[string]ParseFunc{
	"opencode": parseOpenCode,
	"claude":   parseClaude,
	"codex":    parseCodex,
	"cursor":   parseCursor,
	"gemini":   parseGemini,
	"amp":      parseAmp,
	"droid":    parseDroid,
	"openclaw": parseOpenClaw,
	"pi":       parsePi,
	"kimi":     parseKimi,
	"qwen":     parseQwen,
}

// Parse runs the parser registered for client. Unknown clients yield
// nothing.
func Parse(ctx context.Context, client string, in Input) []usage.Message {
	fn, ok := byClient[client]
	if !ok {
		log.Printf("[parsers] no parser for client %q", client)
		return nil
	}
	return fn(ctx, in)
}

// ParseAll fans the scan result out to one goroutine per client and
// collects the unified messages.
func ParseAll(ctx context.Context, scanned scan.Result) []usage.Message {
	type batch struct {
		client   string
		messages []usage.Message
	}

	var wg sync.WaitGroup
	results := make(chan batch, len(scanned.Files))

	for client, files := range scanned.Files {
		in := Input{Files: files}
		if client == "opencode" {
			in.OpenCodeDB = scanned.OpenCodeDB
		}
		if len(in.Files) == 0 && in.OpenCodeDB == "" {
			continue
		}
		wg.Add(1)
		go func(client string, in Input) {
			defer wg.Done()
			results <- batch{client: client, messages: Parse(ctx, client, in)}
		}(client, in)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []usage.Message
	for b := range results {
		if len(b.messages) > 0 {
			log.Printf("[parsers] %s: %d message(s)", b.client, len(b.messages))
		}
		all = append(all, b.messages...)
	}
	return all
}

// newLineScanner sizes a scanner for session transcripts, whose single
// lines can hold entire tool outputs.
func newLineScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 512*1024), maxScannerBufferSize)
	return s
}

// timestampMS parses the timestamp spellings the session formats use:
// epoch seconds, epoch millis, RFC3339 and close variants. Returns 0
// when unparseable.
func timestampMS(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 { // epoch millis
			return n
		}
		return n * 1000 // epoch secs
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.000Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

func mtimeMS(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().UnixMilli()
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// fileStem is the base name without its final extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func keepMessage(m usage.Message) bool {
	return !m.Tokens.IsZero() || m.Cost > 0
}
