// Package artifact implements the release-artifact install strategy:
// build the download URL, fetch with bounded retries, verify size,
// extract and stage the binary.
package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/riveterops/riveter/riveter/platform"
	"github.com/riveterops/riveter/riveter/toolspec"
)

// urlData feeds the ToolSpec URL template.
type urlData struct {
	Version string
	OS      string
	Arch    string
}

// Fetcher turns a ToolSpec artifact descriptor into a staged binary
// inside the workspace.
type Fetcher struct {
	Downloader *Downloader
}

func NewFetcher() *Fetcher {
	return &Fetcher{Downloader: NewDownloader()}
}

// Fetch downloads and stages the tool binary, returning the staged path.
func (f *Fetcher) Fetch(ctx context.Context, spec *toolspec.ToolSpec, version string, plat platform.Platform, ws *Workspace) (string, error) {
	art := spec.Artifact
	if art == nil {
		return "", fmt.Errorf("tool %s has no artifact descriptor", spec.Name)
	}

	url, err := RenderURL(art.URLTemplate, version, plat)
	if err != nil {
		return "", err
	}

	download := filepath.Join(ws.Dir, filepath.Base(url))
	if err := f.Downloader.Download(ctx, url, download, art.MinSize); err != nil {
		return "", err
	}

	binary := art.BinaryName
	if binary == "" {
		binary = spec.Name
	}
	return ExtractBinary(download, art.Format, binary, ws.Dir)
}

// RenderURL expands {{.Version}}, {{.OS}} and {{.Arch}} in the template.
func RenderURL(urlTemplate, version string, plat platform.Platform) (string, error) {
	tmpl, err := template.New("url").Option("missingkey=error").Parse(urlTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing url template: %w", err)
	}

	var buf strings.Builder
	data := urlData{
		Version: strings.TrimPrefix(version, "v"),
		OS:      string(plat.OSFamily),
		Arch:    string(plat.Arch),
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering url template: %w", err)
	}
	return buf.String(), nil
}
