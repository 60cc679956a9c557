// Package update looks up the latest published beyond-cli release.
package update

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	DefaultReleasesURL = "https://api.github.com/repos/beyond-api/beyond-cli/releases/latest"
	CheckTimeout       = 3 * time.Second

	envNoUpdateCheck = "BEYOND_NO_UPDATE_CHECK"
)

// ReleasesURL is the endpoint queried for the latest release. Tests point it
// at an httptest server.
var ReleasesURL = DefaultReleasesURL

type release struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// Notice describes a newer release than the running binary.
type Notice struct {
	Current string
	Latest  string
	URL     string
}

// Check returns a Notice when a newer stable release exists. Development
// builds, unparsable versions and every lookup error yield nil: the check
// must never get in the way of the command that triggered it.
func Check(ctx context.Context, current string) *Notice {
	if os.Getenv(envNoUpdateCheck) != "" {
		return nil
	}
	cur := canonical(current)
	if cur == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReleasesURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil
	}
	if rel.Draft || rel.Prerelease {
		return nil
	}
	latest := canonical(rel.TagName)
	if latest == "" || semver.Compare(latest, cur) <= 0 {
		return nil
	}
	return &Notice{
		Current: strings.TrimPrefix(cur, "v"),
		Latest:  strings.TrimPrefix(latest, "v"),
		URL:     rel.HTMLURL,
	}
}

// canonical returns v as a canonical semver string ("v1.2.3"), or "" when v
// is not a release version.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "dev" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}
