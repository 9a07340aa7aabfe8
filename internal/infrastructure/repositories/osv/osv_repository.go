// Package osv queries an OSV-style advisory API for vulnerabilities
// affecting a specific package version.
package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/diem/whackadep/internal/domain/entities"
)

const cratesEcosystem = "crates.io"

// OSVAdvisoryRepository implements repositories.AdvisoryRepository
// against the OSV query endpoint.
type OSVAdvisoryRepository struct {
	baseURL string
	client  *retryablehttp.Client
}

// NewOSVAdvisoryRepository creates a client for the API at baseURL with
// at most retryMax retries per call.
func NewOSVAdvisoryRepository(baseURL string, retryMax int) *OSVAdvisoryRepository {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.Logger = nil
	return &OSVAdvisoryRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type queryRequest struct {
	Version string `json:"version"`
	Package struct {
		Name      string `json:"name"`
		Ecosystem string `json:"ecosystem"`
	} `json:"package"`
}

type queryResponse struct {
	Vulns []struct {
		ID        string `json:"id"`
		Summary   string `json:"summary"`
		Withdrawn string `json:"withdrawn"` // RFC3339 timestamp, empty if active
		References []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"references"`
	} `json:"vulns"`
}

// GetAdvisories returns every advisory published against the package
// version, withdrawn ones included with the flag set.
func (it *OSVAdvisoryRepository) GetAdvisories(
	ctx context.Context, name, version string,
) ([]entities.Advisory, error) {
	var query queryRequest
	query.Version = version
	query.Package.Name = name
	query.Package.Ecosystem = cratesEcosystem

	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode advisory query: %w", err)
	}

	endpoint := it.baseURL + "/v1/query"
	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := it.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("advisory query for %s %s failed: %w", name, version, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("advisory database returned %s for %s %s", resp.Status, name, version)
	}

	var parsed queryResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&parsed); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode advisory response: %w", decodeErr)
	}

	advisories := make([]entities.Advisory, 0, len(parsed.Vulns))
	for _, vuln := range parsed.Vulns {
		advisory := entities.Advisory{
			ID:        vuln.ID,
			Title:     vuln.Summary,
			Withdrawn: vuln.Withdrawn != "",
		}
		for _, ref := range vuln.References {
			if ref.Type == "ADVISORY" {
				advisory.URL = ref.URL
				break
			}
		}
		advisories = append(advisories, advisory)
	}
	return advisories, nil
}
