package parsers

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tokscale/tokscale/internal/usage"
)

// Column positions in the exported usage CSV.
const (
	cursorColDate       = 0
	cursorColModel      = 3
	cursorColInputCache = 4 // input incl. cache write
	cursorColInput      = 5 // input excl. cache write
	cursorColCacheRead  = 6
	cursorColOutput     = 7
	cursorColCost       = 9
)

// parseCursor reads the locally synced usage CSVs. Cursor never writes
// session files; these CSVs come from the sync subsystem repeating the
// dashboard export. CSV cost is authoritative when pricing cannot
// resolve the model.
func parseCursor(ctx context.Context, in Input) []usage.Message {
	var out []usage.Message
	for _, f := range in.Files {
		if ctx.Err() != nil {
			break
		}
		out = append(out, parseCursorFile(f.Path)...)
	}
	return out
}

func parseCursorFile(path string) []usage.Message {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil || len(header) == 0 || strings.TrimSpace(header[0]) != "Date" {
		return nil
	}

	fallback := mtimeMS(path)
	session := fileStem(path)
	var out []usage.Message

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if len(row) <= cursorColCost {
			continue
		}

		inputAll := csvInt(row[cursorColInputCache])
		input := csvInt(row[cursorColInput])
		cacheWrite := inputAll - input
		if cacheWrite < 0 {
			cacheWrite = 0
		}

		m := usage.Message{
			Client:      "cursor",
			ModelID:     strings.TrimSpace(row[cursorColModel]),
			ProviderID:  "cursor",
			SessionID:   session,
			TimestampMS: timestampMS(row[cursorColDate]),
			Tokens: usage.TokenCounts{
				Input:      input,
				Output:     csvInt(row[cursorColOutput]),
				CacheRead:  csvInt(row[cursorColCacheRead]),
				CacheWrite: cacheWrite,
			},
			Cost: csvFloat(row[cursorColCost]),
		}
		m.Finalize(fallback)
		if keepMessage(m) {
			out = append(out, m)
		}
	}
	return out
}

func csvInt(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func csvFloat(s string) float64 {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
