package main

import (
	"bytes"
	"strings"
	"testing"

	"localsphere/internal/dto"
)

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, &dto.StatsResponse{
		Total:    4,
		Verified: 1,
		Variants: map[string]int64{"unified-productivity": 1, "timezone-freedom": 3},
	})
	out := buf.String()
	if !strings.Contains(out, "Verified:        1 (25.0%)") {
		t.Fatalf("unexpected verified line:\n%s", out)
	}
	tz := strings.Index(out, "timezone-freedom")
	up := strings.Index(out, "unified-productivity")
	if tz < 0 || up < 0 || tz > up {
		t.Fatalf("variants should be listed in name order:\n%s", out)
	}
}
