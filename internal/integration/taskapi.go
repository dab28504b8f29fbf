package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/valter-silva-au/taskcard/pkg/models"
	"golang.org/x/oauth2"
)

// maxTaskPayload bounds how much of a response body is read.
const maxTaskPayload = 1 << 20

// TaskAPIClient retrieves tasks from the remote task resource.
type TaskAPIClient interface {
	// FetchTask performs GET <base_url>/<id>. Network errors, non-2xx
	// responses and bodies that are not a JSON object are returned as errors.
	FetchTask(ctx context.Context, id int) (models.Task, error)
}

// TaskAPIConfig configures a TaskAPIClient.
type TaskAPIConfig struct {
	BaseURL string
	Timeout time.Duration
	// Token, when set, is sent as a bearer token.
	Token string
	// HTTPClient replaces the default transport. Used by tests.
	HTTPClient *http.Client
}

type httpTaskAPIClient struct {
	baseURL string
	client  *http.Client
}

// NewTaskAPIClient creates a TaskAPIClient for cfg.
func NewTaskAPIClient(cfg TaskAPIConfig) TaskAPIClient {
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{}
	}

	client := base
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.Token,
			TokenType:   "Bearer",
		}))
	}
	if cfg.Timeout > 0 {
		c := *client
		c.Timeout = cfg.Timeout
		client = &c
	}

	return &httpTaskAPIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
	}
}

func (c *httpTaskAPIClient) FetchTask(ctx context.Context, id int) (models.Task, error) {
	url := c.baseURL + "/" + strconv.Itoa(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Task{}, fmt.Errorf("building request for task %d: %w", id, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Task{}, fmt.Errorf("fetching task %d: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTaskPayload))
	if err != nil {
		return models.Task{}, fmt.Errorf("reading task %d: %w", id, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Task{}, fmt.Errorf("fetching task %d: unexpected status %s", id, resp.Status)
	}

	task, err := DecodeTaskPayload(body)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %d: %w", id, err)
	}
	return task, nil
}

// ErrNotObject is returned by DecodeTaskPayload when the payload is valid
// JSON but not an object.
var ErrNotObject = errors.New("task payload is not a JSON object")

// DecodeTaskPayload decodes a remote task body. Unknown fields are ignored and
// missing fields are left at their zero value; a body that is not a single
// JSON object is an error.
func DecodeTaskPayload(body []byte) (models.Task, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return models.Task{}, fmt.Errorf("decoding task payload: %w", err)
	}
	if dec.More() {
		return models.Task{}, fmt.Errorf("decoding task payload: trailing data after JSON value")
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return models.Task{}, ErrNotObject
	}
	return models.DecodeTask(obj), nil
}
