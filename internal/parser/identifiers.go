// Package parser turns raw line-delimited input into lookup identifiers.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	// countryPrefix is stripped from raw lines that carry a full
	// international number instead of a bare identifier.
	countryPrefix = "234"
	// minPrefixedLength is the shortest raw line the prefix rule
	// applies to.
	minPrefixedLength = 10
)

// Parse reads raw lines and returns the identifiers in input order,
// duplicates preserved. Lines that are neither a valid prefixed form nor
// purely numeric are dropped and reported in skipped; they are notes, not
// errors. An unreadable source is the only error case.
func Parse(r io.Reader) (identifiers []string, skipped []string, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, countryPrefix) && len(line) >= minPrefixedLength:
			identifiers = append(identifiers, line[len(countryPrefix):])
		case isNumeric(line):
			identifiers = append(identifiers, line)
		default:
			skipped = append(skipped, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read identifiers: %w", err)
	}

	return identifiers, skipped, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
