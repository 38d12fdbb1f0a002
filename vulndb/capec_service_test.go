package vulndb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/shared"
)

type fakeCapecRepository struct {
	shared.CapecRepository
	saved []models.CAPEC
}

func (f *fakeCapecRepository) SaveBatchBestEffort(tx shared.DB, capecs []models.CAPEC) error {
	f.saved = append(f.saved, capecs...)
	return nil
}

func TestCapecServiceMirror(t *testing.T) {
	t.Run("should save every attack pattern from the catalog", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(catalogSnippet)) // nolint:errcheck
		}))
		defer server.Close()

		repository := &fakeCapecRepository{}
		capecService := CapecService{
			httpClient:      server.Client(),
			capecRepository: repository,
			catalogURL:      server.URL,
		}

		require.NoError(t, capecService.Mirror(context.Background()))

		require.Len(t, repository.saved, 2)
		assert.Equal(t, "CAPEC-66", repository.saved[0].CAPEC)
		assert.Equal(t, "CAPEC-1000", repository.saved[1].CAPEC)
		assert.Equal(t, "Deprecated", repository.saved[1].Status)
	})

	t.Run("should reject a catalog with an unexpected name", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<?xml version="1.0"?><Attack_Pattern_Catalog xmlns="http://capec.mitre.org/capec-3" Name="CWE" Version="1.0"/>`)) // nolint:errcheck
		}))
		defer server.Close()

		repository := &fakeCapecRepository{}
		capecService := CapecService{
			httpClient:      server.Client(),
			capecRepository: repository,
			catalogURL:      server.URL,
		}

		err := capecService.Mirror(context.Background())
		assert.Error(t, err)
		assert.Empty(t, repository.saved)
	})

	t.Run("should fail on a non 200 response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		capecService := CapecService{
			httpClient:      server.Client(),
			capecRepository: &fakeCapecRepository{},
			catalogURL:      server.URL,
		}

		assert.Error(t, capecService.Mirror(context.Background()))
	})
}
