package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestDoAttachesBearerAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "/api/products/search", r.URL.Path)
		require.Equal(t, "ring", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":["a","b"]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", WithTokenSource(staticToken("tok")))
	require.NoError(t, err)

	var out struct {
		Data []string `json:"data"`
	}
	resp, err := c.Do(context.Background(), Request{Path: "/api/products/search", Query: url.Values{"q": {"ring"}}}, &out)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"a", "b"}, out.Data)
}

func TestDoOmitsAuthorizationWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithTokenSource(staticToken("")))
	require.NoError(t, err)
	_, err = c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/signout"}, nil)
	require.NoError(t, err)
}

func TestDoSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "addr-1", body["addressId"])
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	var out struct {
		Success bool `json:"success"`
	}
	_, err = c.Do(context.Background(), Request{Method: http.MethodPost, Path: "api/order/addorder", Body: map[string]string{"addressId": "addr-1"}}, &out)
	require.NoError(t, err)
	require.True(t, out.Success)
}

func TestDoReturnsAPIErrorWithServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"only pending orders can be deleted"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	_, err = c.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/api/order/deleteorder/o1"}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "only pending orders can be deleted", Message(err))
}

func TestDoMsgFieldAndPlainBody(t *testing.T) {
	require.Equal(t, "Invalid credentials", newAPIError(400, []byte(`{"msg":"Invalid credentials"}`)).Message)
	require.Equal(t, "boom", newAPIError(500, []byte("boom\n")).Message)
	require.Equal(t, "Not Found", newAPIError(404, nil).Message)
}

func TestDoUnauthorizedTriggersHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	calls := 0
	c, err := New(srv.URL, WithTokenSource(staticToken("old")), WithUnauthorizedHandler(func() { calls++ }))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Path: "/api/getcart"}, nil)
	require.True(t, IsUnauthorized(err))
	require.Equal(t, 1, calls)
}

func TestDoNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	c, err := New(srv.URL)
	require.NoError(t, err)

	var out map[string]any
	_, err = c.Do(context.Background(), Request{Path: "/x"}, &out)
	var nerr *NetworkError
	require.True(t, errors.As(err, &nerr))
	require.Equal(t, "decode", nerr.Op)

	srv.Close()
	_, err = c.Do(context.Background(), Request{Path: "/x"}, nil)
	require.True(t, errors.As(err, &nerr))
	require.Zero(t, StatusOf(err))
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	require.Error(t, err)
}
