// Package version holds the build version and checks the project's
// releases for a newer one.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Current is the build version, overridable at link time.
var Current = "0.1.0"

const (
	releasesURL  = "https://api.github.com/repos/studiowebux/apiprobe/releases/latest"
	checkTimeout = 5 * time.Second
)

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckForUpdate asks GitHub for the latest release and reports whether
// it is newer than the current build.
func CheckForUpdate(ctx context.Context) (available bool, latest string, url string, err error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return false, "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "apiprobe/"+Current)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, "", "", fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, "", "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return false, "", "", fmt.Errorf("failed to decode release: %w", err)
	}

	latest = strings.TrimPrefix(rel.TagName, "v")
	current := strings.TrimPrefix(Current, "v")

	return latest != "" && isNewer(latest, current), latest, rel.HTMLURL, nil
}

// isNewer compares two dotted version strings numerically, ignoring
// pre-release and build suffixes.
func isNewer(latest, current string) bool {
	a, b := parse(latest), parse(current)
	for len(a) < len(b) {
		a = append(a, 0)
	}
	for len(b) < len(a) {
		b = append(b, 0)
	}
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

func parse(version string) []int {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}
	parts := strings.Split(version, ".")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
