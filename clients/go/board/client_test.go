package board

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/msgboard/internal/api"
	"github.com/eldtechnologies/msgboard/internal/config"
	"github.com/eldtechnologies/msgboard/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	srv := httptest.NewServer(api.NewRouter(zerolog.Nop(), s, nil, &config.Config{}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestClient_CreateListGet(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t)

	messages, err := c.List()
	req.NoError(err)
	req.Empty(messages)

	generated, err := c.Create("", "Hello!")
	req.NoError(err)
	req.Len(generated, 36)

	explicit, err := c.Create("42", "Bonjour!")
	req.NoError(err)
	req.Equal("42", explicit)

	messages, err = c.List()
	req.NoError(err)
	req.ElementsMatch([]Message{{ID: generated, Text: "Hello!"}, {ID: "42", Text: "Bonjour!"}}, messages)

	found, err := c.Get("42")
	req.NoError(err)
	req.Equal([]Message{{ID: "42", Text: "Bonjour!"}}, found)

	found, err = c.Get("missing")
	req.NoError(err)
	req.Empty(found)
}

func TestClient_GetEscapedIDs(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t)

	for _, id := range []string{"a%41", "v1..2", "a/b", "hello world"} {
		created, err := c.Create(id, "text for "+id)
		req.NoError(err)
		req.Equal(id, created)

		found, err := c.Get(id)
		req.NoError(err)
		req.Equal([]Message{{ID: id, Text: "text for " + id}}, found, id)
	}
}

func TestClient_DuplicateReturnsAPIError(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t)

	_, err := c.Create("same", "one")
	req.NoError(err)

	_, err = c.Create("same", "two")
	var apiErr *APIError
	req.True(errors.As(err, &apiErr))
	req.Equal(http.StatusConflict, apiErr.StatusCode)
	req.Equal("message id already exists", apiErr.Message)
}

func TestClient_Health(t *testing.T) {
	req := require.New(t)
	c := newTestClient(t)

	resp, err := c.Health()
	req.NoError(err)
	req.Equal("healthy", resp.Status)
	req.Contains(resp.Checks, "database")
}

func TestNewClient_DefaultURL(t *testing.T) {
	require.Equal(t, DefaultURL, NewClient("").BaseURL)
}
