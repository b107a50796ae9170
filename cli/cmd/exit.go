package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/urfave/cli/v2"

	"github.com/Jharmony/StreamVault/types"
)

// Exit codes for publish and attach.
const (
	exitSuccess  = 0
	exitFailed   = 1
	exitRejected = 2
	exitConfig   = 3
)

// resultExitCode maps a finished flow to its exit code.
func resultExitCode(res *types.PublishResult) int {
	switch {
	case res == nil:
		return exitFailed
	case res.Success:
		return exitSuccess
	case res.Rejected:
		return exitRejected
	default:
		return exitFailed
	}
}

// exitFor returns nil on success so urfave/cli does not print anything.
func exitFor(res *types.PublishResult) error {
	code := resultExitCode(res)
	if code == exitSuccess {
		return nil
	}
	return cli.Exit("", code)
}

// errPublishLocked is returned when another process holds the publish lock.
var errPublishLocked = errors.New("publish lock held by another process")

// acquirePublishLock takes the machine-wide publish lock without waiting.
// The returned func releases it.
func acquirePublishLock(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire publish lock: %w", err)
	}
	if !locked {
		return nil, errPublishLocked
	}
	return func() { _ = lock.Unlock() }, nil
}

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
