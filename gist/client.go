/*
Package gist talks to the GitHub Gist API. One private gist holds the two
shared documents as separate files, so the free tier doubles as a tiny
replicated database with history.

ENDPOINTS USED:
  GET   /gists/{id}   fetch both files
  PATCH /gists/{id}   replace file contents
  POST  /gists        create the initial gist
  GET   /user         resolve the token owner for the allow-list
*/
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/warp/swearjar/syncer"
)

// File names inside the gist.
const (
	ScoresFile       = "swearjar_data.json"
	AchievementsFile = "swearjar_achievements.json"
)

const defaultBaseURL = "https://api.github.com"

// Client is a minimal GitHub Gist client scoped to one gist.
type Client struct {
	http    *http.Client
	baseURL string
	gistID  string
}

// New builds a client. The token needs the "gist" scope. gistID may be
// empty when the gist is yet to be created via Create.
func New(token, gistID string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	hc := oauth2.NewClient(context.Background(), src)
	hc.Timeout = 15 * time.Second
	return &Client{http: hc, baseURL: defaultBaseURL, gistID: gistID}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// GistID returns the configured gist id.
func (c *Client) GistID() string { return c.gistID }

type gistFile struct {
	Content string `json:"content"`
}

type gistDocument struct {
	ID          string              `json:"id,omitempty"`
	Description string              `json:"description,omitempty"`
	Public      bool                `json:"public"`
	Files       map[string]gistFile `json:"files"`
}

// Fetch returns the raw contents of both files. A file missing from the
// gist comes back nil.
func (c *Client) Fetch(ctx context.Context) ([]byte, []byte, error) {
	if c.gistID == "" {
		return nil, nil, syncer.ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/gists/"+c.gistID, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return nil, nil, err
	}

	var doc gistDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("decode gist: %w", err)
	}

	var scores, achievements []byte
	if f, ok := doc.Files[ScoresFile]; ok {
		scores = []byte(f.Content)
	}
	if f, ok := doc.Files[AchievementsFile]; ok {
		achievements = []byte(f.Content)
	}
	return scores, achievements, nil
}

// Update replaces both files in place.
func (c *Client) Update(ctx context.Context, scores, achievements []byte) error {
	if c.gistID == "" {
		return syncer.ErrNotConfigured
	}
	payload := gistDocument{Files: map[string]gistFile{
		ScoresFile: {Content: string(scores)},
	}}
	if achievements != nil {
		payload.Files[AchievementsFile] = gistFile{Content: string(achievements)}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/gists/"+c.gistID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return statusError(resp)
}

// Create makes a new private gist holding both documents and remembers its
// id on the client. Returns the id.
func (c *Client) Create(ctx context.Context, description string, scores, achievements []byte) (string, error) {
	payload := gistDocument{
		Description: description,
		Public:      false,
		Files: map[string]gistFile{
			ScoresFile:       {Content: string(scores)},
			AchievementsFile: {Content: string(achievements)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/gists", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return "", err
	}

	var doc gistDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode gist: %w", err)
	}
	c.gistID = doc.ID
	return doc.ID, nil
}

// User resolves the login of the token owner. The allow-list keys on it.
func (c *Client) User(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return "", err
	}

	var user struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("decode user: %w", err)
	}
	return user.Login, nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", syncer.ErrRemoteUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", syncer.ErrRemoteNotFound, resp.StatusCode)
	default:
		return fmt.Errorf("github api status %d", resp.StatusCode)
	}
}
