// Package headless spawns a client binary with its stdout teed into a
// capture file under the headless root, where the scanner later picks
// it up and parses it like any native session file.
package headless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/tokscale/tokscale/internal/clients"
	"github.com/tokscale/tokscale/internal/scan"
)

// ErrNotSupported marks clients without the headless capture bit.
var ErrNotSupported = errors.New("client does not support headless capture")

// Capture is one headless run. Zero-value fields default to the client
// id and the process's own standard streams.
type Capture struct {
	Binary string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the client under capture. Stdin, stderr and the exit
// code pass through untouched; stdout is copied into the capture file
// as it streams. A run that produced no output leaves no file behind.
func (c Capture) Run(ctx context.Context, home, client string, args []string) (int, error) {
	def, ok := clients.ByID(client)
	if !ok {
		return 0, fmt.Errorf("unknown client %q", client)
	}
	if !def.Headless {
		return 0, fmt.Errorf("%s: %w", client, ErrNotSupported)
	}

	dir := filepath.Join(scan.HeadlessRoots(home)[0], def.ID, "sessions")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return 0, fmt.Errorf("creating capture dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d.jsonl", time.Now().UnixMilli()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("creating capture file: %w", err)
	}

	binary := c.Binary
	if binary == "" {
		binary = def.ID
	}
	log.Printf("[headless] %s -> %s", binary, path)

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = orStdin(c.Stdin)
	cmd.Stdout = io.MultiWriter(orStdout(c.Stdout), f)
	cmd.Stderr = orStderr(c.Stderr)

	runErr := cmd.Run()
	closeErr := f.Close()
	removeEmptyCapture(path)

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if runErr != nil {
		return 0, fmt.Errorf("running %s: %w", binary, runErr)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("closing capture file: %w", closeErr)
	}
	return 0, nil
}

// Run is Capture{}.Run: the client id as the binary, the process's own
// standard streams.
func Run(ctx context.Context, home, client string, args []string) (int, error) {
	return Capture{}.Run(ctx, home, client, args)
}

func removeEmptyCapture(path string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > 0 {
		return
	}
	if err := os.Remove(path); err != nil {
		log.Printf("[headless] removing empty capture %s: %v", path, err)
	}
}

func orStdin(r io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return os.Stdin
}

func orStdout(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return os.Stdout
}

func orStderr(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return os.Stderr
}
