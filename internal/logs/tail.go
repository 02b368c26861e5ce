// Package logs reads back the bounded log file for display. The file is
// already capped by the sink, so reading it whole stays cheap.
package logs

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Tail returns the last limit lines of the log file at path, oldest first.
// A missing file yields no lines and no error. A limit <= 0 returns the
// whole file.
func Tail(path string, limit int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("log path %q is a directory", path)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if limit <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log file: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, limit)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, 0, count)
	start := (idx - count + limit) % limit
	for i := 0; i < count; i++ {
		lines = append(lines, ring[(start+i)%limit])
	}
	return lines, nil
}

// Grep returns the lines of the log file containing the substring, oldest
// first. Matching is plain case-sensitive containment.
func Grep(path, substring string) ([]string, error) {
	all, err := Tail(path, 0)
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, line := range all {
		if strings.Contains(line, substring) {
			matched = append(matched, line)
		}
	}
	return matched, nil
}
