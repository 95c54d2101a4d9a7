package util

import (
    "strconv"
    "strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
    if v < lo {
        return lo
    }
    if v > hi {
        return hi
    }
    return v
}

// TruncateWords keeps at most n whitespace-separated tokens of s.
func TruncateWords(s string, n int) string {
    fields := strings.Fields(s)
    if len(fields) <= n {
        return s
    }
    return strings.Join(fields[:n], " ")
}
