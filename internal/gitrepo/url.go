package gitrepo

import (
	"fmt"
	"net/url"
	"strings"
)

// TrimRemoteURL normalizes a declared repository URL down to
// "https://host/owner/repo". Registries let packages declare deep links
// (e.g. a subdirectory of a monorepo); cloning needs the repository
// root.
func TrimRemoteURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse repository url %q: %w", rawURL, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid host in repository url %q", rawURL)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", fmt.Errorf("repository url %q missing owner or repo", rawURL)
	}
	owner := segments[0]
	repo := strings.TrimSuffix(segments[1], ".git")

	return fmt.Sprintf("https://%s/%s/%s", parsed.Host, owner, repo), nil
}
