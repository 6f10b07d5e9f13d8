package providers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// parseNumber reads a numeric string, rejecting blanks and the "." missing marker.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(s, 64)
}

func percentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}
