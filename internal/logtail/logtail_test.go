package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestLevel(t *testing.T) {
	tests := map[string]string{
		"2026-10-16 09:01:02.123 INF live feed connected conn=3f2a": LevelInfo,
		"2026-10-16 09:01:02.123 WRN malformed frame dropped":       LevelWarn,
		"2026-10-16 09:01:02.123 ERR live entry dropped id=4":        LevelError,
		"2026-10-16 09:01:02.123 DBG page settled":                   LevelDebug,
		"    continuation line":                                      "",
		"2026-10-16 09:01:02.123 msg=x ERR":                          "",
		"":                                                           "",
	}
	for line, want := range tests {
		if got := Level(line); got != want {
			t.Errorf("Level(%q) = %q, want %q", line, got, want)
		}
	}
}

func TestFilter(t *testing.T) {
	lines := []string{
		"t DBG fetching",
		"t INF connected",
		"t WRN dropped",
		"    detail",
		"t ERR order",
		"t INF closed",
	}

	if got := Filter(lines, ""); !reflect.DeepEqual(got, lines) {
		t.Fatalf("Filter(all) = %v", got)
	}
	want := []string{"t WRN dropped", "    detail", "t ERR order"}
	if got := Filter(lines, LevelWarn); !reflect.DeepEqual(got, want) {
		t.Fatalf("Filter(WRN) = %v, want %v", got, want)
	}
}
