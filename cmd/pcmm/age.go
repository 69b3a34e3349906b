package main

import (
	"fmt"
	"strings"
	"time"
)

func parseAge(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("older-than: %q is not a positive duration", raw)
	}
	return d, nil
}
