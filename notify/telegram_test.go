package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTelegramNotify(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottoken123/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("token123", "chat42")
	tg.baseURL = srv.URL

	require.NoError(t, tg.Notify(context.Background(), "LONG BTCUSDT 2.5 @ 117.60"))
	require.Equal(t, "chat42", got["chat_id"])
	require.Equal(t, "LONG BTCUSDT 2.5 @ 117.60", got["text"])
}

func TestTelegramNotify_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat")
	tg.baseURL = srv.URL

	err := tg.Notify(context.Background(), "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}
