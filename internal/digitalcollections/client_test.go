package digitalcollections

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lehigh-university-libraries/dc-export/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collectionUUID = "5e66b3e8-dc9c-d471-e040-e00a180654d7"

func TestCapturesPaging(t *testing.T) {
	var (
		mu    sync.Mutex
		pages []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/"+collectionUUID, r.URL.Path)
		assert.Equal(t, `Token token="secret"`, r.Header.Get("Authorization"))
		assert.Equal(t, "500", r.URL.Query().Get("per_page"))

		page := r.URL.Query().Get("page")
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()
		switch page {
		case "1":
			fmt.Fprint(w, `{"nyplAPI": {"request": {"page": "1", "totalPages": "2"}, "response": {"numResults": "3", "capture": [
				{"uuid": "c1", "imageID": "1001", "sortString": "0000000001", "title": "Cover",
				 "imageLinks": {"imageLink": ["http://images.nypl.org/index.php?id=1001&t=w", "http://images.nypl.org/index.php?id=1001&t=q"]}},
				{"uuid": "c2", "imageID": 1002, "sortString": "0000000002", "title": "Page 2"}
			]}}}`)
		case "2":
			fmt.Fprint(w, `{"nyplAPI": {"request": {"page": "2", "totalPages": 2}, "response": {"numResults": "3", "capture":
				{"uuid": "c3", "imageID": "1003", "sortString": "0000000001", "title": {"$": "Single"},
				 "imageLinks": {"imageLink": "http://images.nypl.org/index.php?id=1003&t=v"}}
			}}}`)
		default:
			t.Errorf("unexpected page %s", page)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")

	var got []models.Capture
	err := client.Captures(context.Background(), collectionUUID, func(c models.Capture) error {
		got = append(got, c)
		return nil
	})
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{"1", "2"}, pages)
	mu.Unlock()
	require.Len(t, got, 3)
	assert.Equal(t, "c1", got[0].UUID)
	assert.Len(t, got[0].ImageLinks, 2)
	assert.Equal(t, "1002", got[1].ImageID)
	assert.Empty(t, got[1].ImageLinks)
	assert.Equal(t, "Single", got[2].Title)
	assert.Equal(t, []string{"http://images.nypl.org/index.php?id=1003&t=v"}, got[2].ImageLinks)
}

func TestCapturesStopsOnEmptyPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"nyplAPI": {"request": {"totalPages": "9"}, "response": {"numResults": "0"}}}`)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "t").Captures(context.Background(), collectionUUID, func(models.Capture) error {
		t.Fatal("no captures expected")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCapturesCallbackErrorStops(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"nyplAPI": {"request": {"totalPages": "5"}, "response": {"capture": [{"uuid": "a"}, {"uuid": "b"}]}}}`)
	}))
	defer srv.Close()

	stop := errors.New("stop")
	seen := 0
	err := NewClient(srv.URL, "t").Captures(context.Background(), collectionUUID, func(models.Capture) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCapturesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "bad").Captures(context.Background(), collectionUUID, func(models.Capture) error { return nil })
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "invalid token")
}

func TestMODS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/mods/c1", r.URL.Path)
		fmt.Fprint(w, `{"nyplAPI": {"response": {"mods": {
			"subject": {"geographic": {"$": "Bronx (New York, N.Y.)"}},
			"originInfo": {"dateCreated": {"keyDate": "yes", "$": "1910"}}
		}}}}`)
	}))
	defer srv.Close()

	doc, err := NewClient(srv.URL, "t").MODS(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, doc.Subject, 1)
	assert.Equal(t, "Bronx (New York, N.Y.)", doc.Subject[0].Geographic.String())
	require.Len(t, doc.OriginInfo, 1)
	assert.True(t, doc.OriginInfo[0].DateCreated.KeyDate)
}

func TestMODSMissingDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"nyplAPI": {"response": {"headers": {"status": "success"}}}}`)
	}))
	defer srv.Close()

	doc, err := NewClient(srv.URL, "t").MODS(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, doc.Subject)
	assert.Empty(t, doc.OriginInfo)
}

func TestMODSErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"nyplAPI": `)
			},
		},
		{
			name: "malformed mods",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"nyplAPI": {"response": {"mods": "not a record"}}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, "t").MODS(context.Background(), "c1")
			assert.Error(t, err)
		})
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"nyplAPI": {"response": {}}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t", WithRateLimit(0.001))
	_, err := client.MODS(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.MODS(ctx, "second")
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", "t")
	assert.Equal(t, DefaultBaseURL, client.BaseURL)
	assert.Nil(t, client.limiter)

	client = NewClient("http://localhost:8080/api/v1/", "t", WithHTTPClient(http.DefaultClient))
	assert.Equal(t, "http://localhost:8080/api/v1", client.BaseURL)
	assert.Same(t, http.DefaultClient, client.httpClient)
}
