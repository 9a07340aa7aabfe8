// Package cratesio is a thin client for the crates.io HTTP API. The
// host is rate-limited, so every call goes through a retry-bounded
// HTTP client and never retries beyond that bound.
package cratesio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/diem/whackadep/internal/domain/repositories"
)

const userAgent = "whackadep (https://github.com/diem/whackadep)"

// CratesIORegistryRepository implements repositories.RegistryRepository
// against a crates.io-shaped API.
type CratesIORegistryRepository struct {
	baseURL string
	client  *retryablehttp.Client
}

// NewCratesIORegistryRepository creates a client for the API at baseURL
// with at most retryMax retries per call.
func NewCratesIORegistryRepository(baseURL string, retryMax int) *CratesIORegistryRepository {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.Logger = nil
	return &CratesIORegistryRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type crateResponse struct {
	Crate struct {
		Name      string `json:"name"`
		Downloads uint64 `json:"downloads"`
	} `json:"crate"`
}

type versionResponse struct {
	Version struct {
		Num       string `json:"num"`
		Downloads uint64 `json:"downloads"`
	} `json:"version"`
}

type reverseDependenciesResponse struct {
	Meta struct {
		Total uint64 `json:"total"`
	} `json:"meta"`
}

// GetCrateMetadata fetches the registry-level view of a crate.
func (it *CratesIORegistryRepository) GetCrateMetadata(
	ctx context.Context, name string,
) (repositories.CrateMetadata, error) {
	var parsed crateResponse
	if err := it.getJSON(ctx, it.crateURL(name), &parsed); err != nil {
		return repositories.CrateMetadata{}, err
	}
	return repositories.CrateMetadata{
		Name:      parsed.Crate.Name,
		Downloads: parsed.Crate.Downloads,
	}, nil
}

// GetVersionDownloads fetches the download count of one published version.
func (it *CratesIORegistryRepository) GetVersionDownloads(
	ctx context.Context, name, version string,
) (uint64, error) {
	var parsed versionResponse
	if err := it.getJSON(ctx, it.crateURL(name)+"/"+url.PathEscape(version), &parsed); err != nil {
		return 0, err
	}
	return parsed.Version.Downloads, nil
}

// GetReverseDependents counts the crates depending on this one. Only
// the total matters, so a single-entry page is enough.
func (it *CratesIORegistryRepository) GetReverseDependents(
	ctx context.Context, name string,
) (uint64, error) {
	var parsed reverseDependenciesResponse
	endpoint := it.crateURL(name) + "/reverse_dependencies?per_page=1"
	if err := it.getJSON(ctx, endpoint, &parsed); err != nil {
		return 0, err
	}
	return parsed.Meta.Total, nil
}

// DownloadVersionTarball streams the published .crate archive for
// (name, version). The caller owns closing the stream.
func (it *CratesIORegistryRepository) DownloadVersionTarball(
	ctx context.Context, name, version string,
) (io.ReadCloser, error) {
	endpoint := it.crateURL(name) + "/" + url.PathEscape(version) + "/download"
	resp, err := it.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("registry returned %s for %s %s", resp.Status, name, version)
	}
	return resp.Body, nil
}

func (it *CratesIORegistryRepository) crateURL(name string) string {
	return it.baseURL + "/api/v1/crates/" + url.PathEscape(name)
}

func (it *CratesIORegistryRepository) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %q: %w", endpoint, err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := it.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %q failed: %w", endpoint, err)
	}
	return resp, nil
}

func (it *CratesIORegistryRepository) getJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := it.get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned %s for %q", resp.Status, endpoint)
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return fmt.Errorf("failed to decode response from %q: %w", endpoint, decodeErr)
	}
	return nil
}
