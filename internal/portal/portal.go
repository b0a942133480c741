// Package portal is the HTTP client for the Factorio mod portal API.
package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/modport/modport/internal/depparse"
	"github.com/modport/modport/internal/domain"
)

const (
	// DefaultBaseURL is the public mod portal.
	DefaultBaseURL = "https://mods.factorio.com"

	requestTimeout = 10 * time.Second
	userAgent      = "modport"
)

// Client talks to the mod portal. Credentials are optional; they are only
// needed for the portal's own authenticated download route.
type Client struct {
	client   *http.Client
	baseURL  string
	username string
	token    string
}

func New(baseURL, username, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client:   &http.Client{Timeout: requestTimeout},
		baseURL:  baseURL,
		username: username,
		token:    token,
	}
}

// GetMod fetches the full metadata for one mod, including every historical
// release with its dependency declarations.
func (c *Client) GetMod(ctx context.Context, name string) (*Metadata, error) {
	endpoint := c.baseURL + "/api/mods/" + url.PathEscape(name) + "/full"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Name: name, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	if c.username != "" && c.token != "" {
		req.SetBasicAuth(c.username, c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.classifyTransport(name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, StatusCode: resp.StatusCode, Name: name}
	default:
		return nil, &Error{Kind: KindServerError, StatusCode: resp.StatusCode, Name: name}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Name: name, Err: err}
	}

	var meta Metadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, &Error{Kind: KindUnknown, Name: name, Err: fmt.Errorf("decoding response: %w", err)}
	}
	meta.Raw = body

	return &meta, nil
}

func (c *Client) classifyTransport(name string, err error) *Error {
	var urlErr *url.Error
	if (errors.As(err, &urlErr) && urlErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Name: name, Err: err}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return &Error{Kind: KindOffline, Name: name, Err: err}
	}

	return &Error{Kind: KindUnknown, Name: name, Err: err}
}

// Mod fetches a mod's metadata and turns it into a domain record with its
// dependency declarations parsed and partitioned. Implements domain.Registry.
func (c *Client) Mod(ctx context.Context, name string) (*domain.Mod, error) {
	meta, err := c.GetMod(ctx, name)
	if err != nil {
		return nil, err
	}

	mod := &domain.Mod{
		Name:        name,
		Title:       meta.Title,
		Author:      meta.Author,
		Description: meta.Description,
		Homepage:    meta.Homepage,
		Downloads:   meta.DownloadsCount,
		Status:      domain.StatusUnknown,
		Raw:         meta.Raw,
	}
	if mod.Title == "" {
		mod.Title = name
	}

	latest, ok := meta.LatestRelease()
	if !ok {
		return mod, nil
	}

	mod.Version = latest.Version
	mod.LatestVersion = latest.Version
	mod.FactorioVersion = latest.FactorioVersion
	mod.ReleaseDate = latest.ReleasedAt

	for _, decl := range latest.InfoJSON.Dependencies {
		depName, kind := depparse.Parse(decl)
		if depName == "" {
			continue
		}
		switch kind {
		case domain.DepRequired:
			mod.Dependencies = append(mod.Dependencies, depName)
		case domain.DepOptional:
			mod.OptionalDependencies = append(mod.OptionalDependencies, depName)
		case domain.DepIncompatible:
			mod.IncompatibleDependencies = append(mod.IncompatibleDependencies, depName)
		case domain.DepExpansion:
			mod.ExpansionDependencies = append(mod.ExpansionDependencies, depName)
		}
	}

	return mod, nil
}

// DownloadURL returns the portal download path for an exact version of a
// mod. The boolean is false when no release matches; that is not an error.
func (c *Client) DownloadURL(ctx context.Context, name, version string) (string, bool, error) {
	meta, err := c.GetMod(ctx, name)
	if err != nil {
		return "", false, err
	}

	for _, release := range meta.Releases {
		if release.Version == version && release.Filename != "" {
			return c.baseURL + "/download/" + release.Filename, true, nil
		}
	}
	return "", false, nil
}

// Search queries the portal for mods matching a query. Search is best
// effort: any failure degrades to an empty result set, never an error.
func (c *Client) Search(ctx context.Context, query string, limit int) []domain.SearchResult {
	endpoint := c.baseURL + "/api/mods?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		logrus.Debugf("search %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.Debugf("search %q: unexpected status %d", query, resp.StatusCode)
		return nil
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		logrus.Debugf("search %q: decoding response: %v", query, err)
		return nil
	}

	capHint := len(decoded.Results)
	if limit > 0 && limit < capHint {
		capHint = limit
	}
	results := make([]domain.SearchResult, 0, capHint)
	for _, hit := range decoded.Results {
		if limit > 0 && len(results) >= limit {
			break
		}
		results = append(results, domain.SearchResult{
			Name:      hit.Name,
			Title:     hit.Title,
			Owner:     hit.Owner,
			Summary:   hit.Summary,
			Downloads: hit.DownloadsCount,
		})
	}
	return results
}
