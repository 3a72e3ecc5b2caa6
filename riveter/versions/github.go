package versions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	maxIndexBody      = 1 << 20
)

// ReleaseIndex answers "what is the newest published version".
type ReleaseIndex interface {
	LatestVersion(ctx context.Context, repo string) (string, error)
}

// GitHubReleases resolves versions against the GitHub Releases API.
type GitHubReleases struct {
	BaseURL string
	Client  *http.Client
}

func NewGitHubReleases() *GitHubReleases {
	return &GitHubReleases{
		BaseURL: defaultAPIBaseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type release struct {
	TagName    string `json:"tag_name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// LatestVersion asks /releases/latest first and falls back to listing
// releases and picking the highest semantic version.
func (g *GitHubReleases) LatestVersion(ctx context.Context, repo string) (string, error) {
	rel, err := g.fetchLatest(ctx, repo)
	if err == nil && rel.TagName != "" {
		return strings.TrimPrefix(rel.TagName, "v"), nil
	}

	releases, listErr := g.fetchList(ctx, repo)
	if listErr != nil {
		return "", fmt.Errorf("latest lookup failed (%v) and release listing failed: %w", err, listErr)
	}
	return highestVersion(releases)
}

func (g *GitHubReleases) fetchLatest(ctx context.Context, repo string) (release, error) {
	var rel release
	err := g.getJSON(ctx, fmt.Sprintf("%s/repos/%s/releases/latest", g.BaseURL, repo), &rel)
	return rel, err
}

func (g *GitHubReleases) fetchList(ctx context.Context, repo string) ([]release, error) {
	var releases []release
	err := g.getJSON(ctx, fmt.Sprintf("%s/repos/%s/releases?per_page=100", g.BaseURL, repo), &releases)
	return releases, err
}

func (g *GitHubReleases) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIndexBody))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func highestVersion(releases []release) (string, error) {
	var candidates []*goversion.Version
	for _, rel := range releases {
		if rel.Draft || rel.Prerelease {
			continue
		}
		v, err := goversion.NewVersion(strings.TrimPrefix(rel.TagName, "v"))
		if err != nil {
			continue
		}
		candidates = append(candidates, v)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no parsable release versions found")
	}
	sort.Sort(goversion.Collection(candidates))
	return candidates[len(candidates)-1].String(), nil
}
