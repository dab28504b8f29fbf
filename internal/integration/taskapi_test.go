package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTaskPayload(t *testing.T) {
	task, err := DecodeTaskPayload([]byte(`{"id": 196, "title": "Buy milk", "description": "2 litres", "urgency": 2, "extra": true}`))
	require.NoError(t, err)
	assert.Equal(t, 196, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "2 litres", task.Description)
	assert.Equal(t, 2, task.Urgency)
	assert.Empty(t, task.UpdatedAt, "missing fields stay empty")
}

func TestDecodeTaskPayload_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"not json":      "<html>",
		"array":         "[1, 2]",
		"string":        `"task"`,
		"null":          "null",
		"trailing data": `{"id": 1} {"id": 2}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTaskPayload([]byte(body))
			assert.Error(t, err)
		})
	}

	_, err := DecodeTaskPayload([]byte("[]"))
	assert.True(t, errors.Is(err, ErrNotObject))
}

func TestTaskAPIClient_FetchTask(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 196, "title": "Buy milk", "updated_at": "2021-03-01"}`)
	}))
	defer srv.Close()

	client := NewTaskAPIClient(TaskAPIConfig{BaseURL: srv.URL + "/tasks/", Timeout: time.Second})
	task, err := client.FetchTask(context.Background(), 196)
	require.NoError(t, err)

	assert.Equal(t, "/tasks/196", gotPath)
	assert.Empty(t, gotAuth, "no token configured")
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "2021-03-01", task.UpdatedAt)
}

func TestTaskAPIClient_BearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"id": 1}`)
	}))
	defer srv.Close()

	client := NewTaskAPIClient(TaskAPIConfig{BaseURL: srv.URL, Token: "s3cret"})
	_, err := client.FetchTask(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", gotAuth)
}

func TestTaskAPIClient_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"nope"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewTaskAPIClient(TaskAPIConfig{BaseURL: srv.URL}).FetchTask(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestTaskAPIClient_NonObjectBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	_, err := NewTaskAPIClient(TaskAPIConfig{BaseURL: srv.URL}).FetchTask(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotObject))
}

func TestTaskAPIClient_NetworkDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewTaskAPIClient(TaskAPIConfig{BaseURL: url}).FetchTask(context.Background(), 196)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "fetching task 196"), err.Error())
}

func TestTaskAPIClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewTaskAPIClient(TaskAPIConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}).FetchTask(context.Background(), 1)
	require.Error(t, err)
}

func TestTaskAPIClient_AgainstFixtureServer(t *testing.T) {
	srv := httptest.NewServer(NewFixtureHandler(DefaultTaskFixtures(), nil))
	defer srv.Close()

	client := NewTaskAPIClient(TaskAPIConfig{BaseURL: srv.URL + "/tasks"})

	task, err := client.FetchTask(context.Background(), 196)
	require.NoError(t, err)
	assert.Equal(t, "Water the plants", task.Title)

	_, err = client.FetchTask(context.Background(), 9999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
