package query

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLevelFilter parses the heading-level filter syntax: an accept
// list ("1,3,5"), an inclusive range ("1-3"), or a
// comparison ("<=2", ">2", "<N", ">=N"). An empty string allows every
// level.
func ParseLevelFilter(s string) (LevelFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LevelFilter{}, nil
	}

	if strings.HasPrefix(s, "<=") {
		n, err := parseLevel(s[2:])
		return LevelFilter{Lte: true, Bound: n}, err
	}
	if strings.HasPrefix(s, ">=") {
		n, err := parseLevel(s[2:])
		return LevelFilter{Gte: true, Bound: n}, err
	}
	if strings.HasPrefix(s, "<") {
		n, err := parseLevel(s[1:])
		return LevelFilter{Lt: true, Bound: n}, err
	}
	if strings.HasPrefix(s, ">") {
		n, err := parseLevel(s[1:])
		return LevelFilter{Gt: true, Bound: n}, err
	}

	if strings.Contains(s, "-") && !strings.Contains(s, ",") {
		parts := strings.SplitN(s, "-", 2)
		lo, err := parseLevel(parts[0])
		if err != nil {
			return LevelFilter{}, err
		}
		hi, err := parseLevel(parts[1])
		if err != nil {
			return LevelFilter{}, err
		}
		return LevelFilter{HasLo: true, Lo: lo, HasHi: true, Hi: hi}, nil
	}

	set := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		n, err := parseLevel(part)
		if err != nil {
			return LevelFilter{}, err
		}
		set[n] = true
	}
	return LevelFilter{Set: set}, nil
}

func parseLevel(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("query: invalid heading level %q", s)
	}
	if n < 0 || n > 6 {
		return 0, fmt.Errorf("query: heading level %d out of range 0..=6", n)
	}
	return n, nil
}
