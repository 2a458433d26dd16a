package catalog

import (
	"fmt"
	"regexp"
	"strconv"
)

var versionToken = regexp.MustCompile(`-V(\d+)-`)

// Version reports the -V{n}- token embedded in a candidate URL. Bare slug
// URLs carry no token and report ok=false.
func Version(rawURL string) (int, bool) {
	m := versionToken.FindStringSubmatch(rawURL)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// WithVersion returns rawURL with its version token swapped for -V{n}-.
// It refuses URLs without a token so extended sweeps cannot silently probe
// the wrong page.
func WithVersion(rawURL string, n int) (string, error) {
	if _, ok := Version(rawURL); !ok {
		return "", fmt.Errorf("url %q has no version token", rawURL)
	}
	return versionToken.ReplaceAllString(rawURL, fmt.Sprintf("-V%d-", n)), nil
}
