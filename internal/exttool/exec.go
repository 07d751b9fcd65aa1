// Package exttool wraps the external programs the catalog can delegate to: the
// datacontract CLI for structured data contracts and the AsyncAPI generator for
// multi-page event documentation.
package exttool

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
)

// run executes name with args, capturing both streams. A non-zero exit becomes
// ErrToolFailed carrying the first line of output.
func run(ctx context.Context, name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolNotFound, name, err)
	}

	// #nosec G204 -- command comes from configuration, arguments are file paths
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking external tool", logfields.Tool(name), slog.Any("args", args))

	err = cmd.Run()

	outStr := strings.TrimSpace(stdout.String())
	errStr := strings.TrimSpace(stderr.String())
	if outStr != "" {
		slog.Debug("tool stdout", logfields.Tool(name), slog.String("output", outStr))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		output := errStr
		if output == "" {
			output = outStr
		}
		if line := firstLine(output); line != "" {
			return fmt.Errorf("%w: %s: %w: %s", ErrToolFailed, name, err, line)
		}
		return fmt.Errorf("%w: %s: %w", ErrToolFailed, name, err)
	}
	if errStr != "" {
		slog.Debug("tool stderr", logfields.Tool(name), slog.String("error_output", errStr))
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

var versionRe = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

// ParseVersion extracts the first semantic version from tool output.
func ParseVersion(output string) string {
	if m := versionRe.FindStringSubmatch(output); len(m) >= 2 {
		return m[1]
	}
	return ""
}

// Probe reports whether command is installed and answers args (usually
// --version) successfully. The parsed version is returned when present.
func Probe(ctx context.Context, command string, args ...string) (bool, string) {
	path, err := exec.LookPath(command)
	if err != nil {
		return false, ""
	}
	if len(args) == 0 {
		return true, ""
	}
	// #nosec G204 -- path is from exec.LookPath
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil {
		slog.Debug("Tool probe failed", logfields.Tool(command), logfields.Error(err))
		return false, ""
	}
	return true, ParseVersion(string(out))
}
