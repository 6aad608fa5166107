package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseKs reads a comma separated list of top-k values.
func parseKs(s string) ([]int, error) {
	var ks []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		k, err := strconv.Atoi(f)
		if err != nil || k <= 0 {
			return nil, fmt.Errorf("invalid top-k value %q", f)
		}
		ks = append(ks, k)
	}
	if len(ks) == 0 {
		return nil, fmt.Errorf("no top-k values in %q", s)
	}
	return ks, nil
}
