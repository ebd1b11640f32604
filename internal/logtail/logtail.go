package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Severity of a diagnostics log line.
const (
	LevelDebug = "DBG"
	LevelInfo  = "INF"
	LevelWarn  = "WRN"
	LevelError = "ERR"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Level extracts the severity token a tint handler writes after the
// timestamp, or "" when the line carries none.
func Level(line string) string {
	for _, field := range strings.Fields(line) {
		switch field {
		case LevelDebug, LevelInfo, LevelWarn, LevelError:
			return field
		}
		if strings.Contains(field, "=") {
			break
		}
	}
	return ""
}

// Filter keeps lines at or above minLevel. Lines without a level follow the
// line before them, so multi-line records stay together.
func Filter(lines []string, minLevel string) []string {
	min := rank(minLevel)
	if min <= 0 {
		return lines
	}
	var out []string
	keep := false
	for _, line := range lines {
		if lvl := Level(line); lvl != "" {
			keep = rank(lvl) >= min
		}
		if keep {
			out = append(out, line)
		}
	}
	return out
}

func rank(level string) int {
	switch level {
	case LevelDebug:
		return 1
	case LevelInfo:
		return 2
	case LevelWarn:
		return 3
	case LevelError:
		return 4
	default:
		return 0
	}
}
