package rsync

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// BinaryInfo describes a detected rsync binary.
type BinaryInfo struct {
	Path    string
	Version string
}

var versionRegexp = regexp.MustCompile(`rsync\s+version\s+([0-9]+\.[0-9]+\.[0-9]+)`)

// Detect locates the rsync binary on PATH, queries its version, and returns
// the gathered metadata. The context bounds the version subprocess.
func Detect(ctx context.Context) (BinaryInfo, error) {
	exe, err := exec.LookPath("rsync")
	if err != nil {
		return BinaryInfo{}, fmt.Errorf("rsync binary not found on PATH: %w", err)
	}
	ver, err := queryVersion(ctx, exe)
	if err != nil {
		return BinaryInfo{}, err
	}
	return BinaryInfo{Path: exe, Version: ver}, nil
}

// queryVersion executes `rsync --version` and parses the version from its
// first output line.
func queryVersion(ctx context.Context, exe string) (string, error) {
	// Guard against commands that hang by applying a short timeout.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, exe, "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("rsync: version command failed: %w", err)
	}
	version, err := parseVersion(strings.NewReader(string(out)))
	if err != nil {
		return "", err
	}
	if version == "" {
		return "", errors.New("rsync: could not parse version output")
	}
	return version, nil
}

func parseVersion(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if matches := versionRegexp.FindStringSubmatch(scanner.Text()); len(matches) == 2 {
			return matches[1], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("rsync: read version output: %w", err)
	}
	return "", nil
}

// ExtractVersion derives the rsync version string from the supplied command
// output. Primarily exposed for testing.
func ExtractVersion(output string) (string, error) {
	return parseVersion(strings.NewReader(output))
}
