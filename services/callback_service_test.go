package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlinker/threatlinker/dtos"
)

func TestCallbackClient(t *testing.T) {
	payload := dtos.CallbackPayload{
		TaskID:      uuid.New(),
		GeneratedAt: time.Now().UTC(),
		CVEResults: []dtos.CallbackCVEResult{
			{CVEID: "CVE-2024-0001", TopCapecs: []dtos.CallbackTopCapec{{CAPECID: "CAPEC-1", Rank: 1, FinalScore: 0.9}}},
		},
	}

	t.Run("should post the payload with the api key header", func(t *testing.T) {
		var received dtos.CallbackPayload
		var apiKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey = r.Header.Get("X-API-KEY")
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewCallbackClient("secret", 5*time.Second)
		err := client.SendCompletion(context.Background(), server.URL, payload)
		require.NoError(t, err)

		assert.Equal(t, "secret", apiKey)
		assert.Equal(t, payload.TaskID, received.TaskID)
		require.Len(t, received.CVEResults, 1)
		assert.Equal(t, "CVE-2024-0001", received.CVEResults[0].CVEID)
	})

	t.Run("should omit the api key header when unset", func(t *testing.T) {
		headerPresent := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, headerPresent = r.Header["X-Api-Key"]
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewCallbackClient("", 5*time.Second)
		require.NoError(t, client.SendCompletion(context.Background(), server.URL, payload))
		assert.False(t, headerPresent)
	})

	t.Run("should retry transient server errors", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewCallbackClient("", 5*time.Second)
		require.NoError(t, client.SendCompletion(context.Background(), server.URL, payload))
		assert.Equal(t, 3, attempts)
	})

	t.Run("should return an error once the retries are exhausted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewCallbackClient("", 5*time.Second)
		err := client.SendCompletion(context.Background(), server.URL, payload)
		assert.Error(t, err)
	})
}
