// internal/common/http/client_test.go
package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"base":"USD"}`))
		case "/broken":
			_, _ = w.Write([]byte(`{`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("down"))
		}
	}))
	defer srv.Close()

	client := NewClient(time.Second)

	var out struct {
		Base string `json:"base"`
	}
	require.NoError(t, client.GetJSON(context.Background(), srv.URL+"/ok", &out))
	assert.Equal(t, "USD", out.Base)

	err := client.GetJSON(context.Background(), srv.URL+"/missing", &out)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "down", statusErr.Body)

	assert.Error(t, client.GetJSON(context.Background(), srv.URL+"/broken", &out))
}
