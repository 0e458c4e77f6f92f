package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSMSGateway_PostsMessage(t *testing.T) {
	var got smsRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSMSGateway(srv.URL, "k-123")
	require.NoError(t, s.SendCode(context.Background(), "081234567890", "424242"))
	assert.Equal(t, "sms", s.Channel())
	assert.Equal(t, "Bearer k-123", auth)
	assert.Equal(t, "081234567890", got.To)
	assert.Contains(t, got.Message, "424242")
}

func TestSMSGateway_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad number", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewSMSGateway(srv.URL, "k").SendCode(context.Background(), "x", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestSendGrid_SendsMail(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendPath, r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGrid("sg-key", "noreply@p2plend.test", srv.URL)
	require.NoError(t, s.SendCode(context.Background(), "alice@example.com", "135790"))
	assert.Equal(t, "email", s.Channel())
	assert.True(t, strings.Contains(body, "alice@example.com"), body)
	assert.True(t, strings.Contains(body, "135790"), body)
}

func TestSendGrid_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	s := NewSendGrid("bad", "noreply@p2plend.test", srv.URL)
	err := s.SendCode(context.Background(), "alice@example.com", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	require.Error(t, s.SendCode(context.Background(), "", "1"), "missing recipient")
}

func TestLog_WritesCode(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLog(zap.New(core).Sugar())
	require.NoError(t, l.SendCode(context.Background(), "bob@example.com", "999000"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "999000", logs.All()[0].ContextMap()["code"])
}
