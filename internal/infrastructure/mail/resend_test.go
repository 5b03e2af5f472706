package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockMind/internal/config"
	"StockMind/internal/domain"
)

func TestResendTransport_Send(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"49a3999c"}`))
	}))
	defer srv.Close()

	tr := NewResendTransport(config.MailConfig{Endpoint: srv.URL + "/", APIKey: "re_test", From: "StockMind <d@x.com>"})
	err := tr.Send(context.Background(), domain.Email{To: "u@x.com", Subject: "Daily", HTML: "<p>hi</p>", Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "StockMind <d@x.com>", got.From)
	assert.Equal(t, []string{"u@x.com"}, got.To)
	assert.Equal(t, "Daily", got.Subject)
	assert.Equal(t, "<p>hi</p>", got.HTML)
	assert.Equal(t, "hi", got.Text)
}

func TestResendTransport_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"Invalid to field"}`))
	}))
	defer srv.Close()

	tr := NewResendTransport(config.MailConfig{Endpoint: srv.URL, APIKey: "re_test"})
	err := tr.Send(context.Background(), domain.Email{To: "bad"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid to field")
}

func TestResendTransport_MissingKey(t *testing.T) {
	tr := NewResendTransport(config.MailConfig{})
	err := tr.Send(context.Background(), domain.Email{To: "u@x.com"})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
