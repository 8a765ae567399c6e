// Package storage is a thin client for the hosted platform's object storage API.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mvogel/vogelwedding/internal/model"
)

// Client talks to one bucket of the platform's storage API.
type Client struct {
	baseURL    string
	apiKey     string
	bucket     string
	signSecret []byte
	http       *http.Client
}

// NewClient constructs a storage client for the given bucket. signSecret is the
// project signing secret used to mint signed-URL tokens locally.
func NewClient(baseURL, apiKey, bucket string, signSecret []byte) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		bucket:     bucket,
		signSecret: signSecret,
		http:       &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload stores the given bytes under objectPath. With overwrite=false an
// existing object under the same path is an error.
func (c *Client) Upload(ctx context.Context, data []byte, objectPath string, overwrite bool) error {
	objectPath = strings.Trim(objectPath, "/")
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	ct := mime.TypeByExtension(path.Ext(objectPath))
	if ct == "" {
		ct = "application/octet-stream"
	}
	req.Header.Set("Content-Type", ct)
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("x-upsert", fmt.Sprintf("%t", overwrite))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload %s: unexpected status %d", objectPath, resp.StatusCode)
	}
	return nil
}

type listRequest struct {
	Prefix string   `json:"prefix"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	SortBy listSort `json:"sortBy"`
}

type listSort struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

type listEntry struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns one page of a folder listing, sorted by object name descending.
// Names are zero-padded capture-time prefixes, so this order is
// reverse-chronological without any database involvement.
func (c *Client) List(ctx context.Context, folder string, limit, offset int) ([]model.StorageObject, error) {
	body, err := json.Marshal(listRequest{
		Prefix: strings.Trim(folder, "/"),
		Limit:  limit,
		Offset: offset,
		SortBy: listSort{Column: "name", Order: "desc"},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/storage/v1/object/list/%s", c.baseURL, c.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: unexpected status %d", folder, resp.StatusCode)
	}

	var entries []listEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("list %s: decode response: %w", folder, err)
	}

	out := make([]model.StorageObject, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.StorageObject{Name: e.Name, CreatedAt: e.CreatedAt})
	}
	return out, nil
}

type signedURLClaims struct {
	URL string `json:"url"`
	jwt.RegisteredClaims
}

// SignedURL mints a time-limited link for objectPath. The token is an HS256 JWT
// over the bucket-qualified path, the scheme the platform's own signing
// endpoint uses, so no round trip is needed.
func (c *Client) SignedURL(objectPath string, ttl time.Duration) (string, error) {
	objectPath = strings.Trim(objectPath, "/")
	qualified := c.bucket + "/" + objectPath

	claims := signedURLClaims{
		URL: qualified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.signSecret)
	if err != nil {
		return "", fmt.Errorf("sign url %s: %w", objectPath, err)
	}

	return fmt.Sprintf("%s/storage/v1/object/sign/%s?token=%s", c.baseURL, qualified, signed), nil
}
