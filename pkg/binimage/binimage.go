// Package binimage reads and writes the assembler's binary listing format:
// one 8-bit binary string per line, no trailing newline on the last line.
package binimage

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Write emits lines to path, one per line, with no trailing newline after
// the last one.
func Write(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("binimage: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, line := range lines {
		if i > 0 {
			if _, err := w.WriteString("\n"); err != nil {
				return fmt.Errorf("binimage: %w", err)
			}
		}
		if _, err := w.WriteString(line); err != nil {
			return fmt.Errorf("binimage: %w", err)
		}
	}
	return w.Flush()
}

// Read loads path and returns its lines, each with its trailing newline
// stripped — the inverse of Write.
func Read(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("binimage: %w", err)
	}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}
