package service

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_studio_v1_202610/pkg/net"
)

type receivedPart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// multipartRecorder 记录收到的全部 part
type multipartRecorder struct {
	mu     sync.Mutex
	auth   string
	parts  []receivedPart
	status int
	body   string
}

func (m *multipartRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.auth = r.Header.Get("Authorization")
	m.parts = nil
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reader := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(part)
		m.parts = append(m.parts, receivedPart{
			field:       part.FormName(),
			filename:    part.FileName(),
			contentType: part.Header.Get("Content-Type"),
			data:        data,
		})
	}

	status := m.status
	if status == 0 {
		status = http.StatusCreated
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, m.body)
}

func newTestSubmitter(url string) *HTTPSubmitter {
	dispatcher := net.NewDispatcher(net.DispatcherConfig{Timeout: 5 * time.Second})
	return NewHTTPSubmitter(dispatcher, url, "secret-token")
}

func TestHTTPSubmitter_WireFormat(t *testing.T) {
	rec := &multipartRecorder{}
	server := httptest.NewServer(rec)
	defer server.Close()

	payload := AssemblePayload(validDraft(2))
	require.NoError(t, newTestSubmitter(server.URL).Submit(context.Background(), payload))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, "Bearer secret-token", rec.auth)
	require.Len(t, rec.parts, 7)

	var meta DraftMetadata
	images := map[string]int{}
	for _, p := range rec.parts {
		if p.field == MetadataField {
			assert.Equal(t, "application/json", p.contentType)
			require.NoError(t, json.Unmarshal(p.data, &meta))
			continue
		}
		images[p.field]++
		assert.Equal(t, "image/jpeg", p.contentType)
		assert.NotEmpty(t, p.filename)
	}
	assert.Equal(t, "Linen Shirt", meta.Name)
	assert.Len(t, meta.Variants, 2)
	assert.Equal(t, map[string]int{"variant0": 3, "variant1": 3}, images)
}

func TestHTTPSubmitter_ErrorBody(t *testing.T) {
	rec := &multipartRecorder{status: http.StatusBadRequest, body: `{"message":"Brand not found"}`}
	server := httptest.NewServer(rec)
	defer server.Close()

	err := newTestSubmitter(server.URL).Submit(context.Background(), AssemblePayload(validDraft(1)))
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.ErrorContains(t, err, "Brand not found")
}

func TestHTTPSubmitter_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := newTestSubmitter(url).Submit(context.Background(), AssemblePayload(validDraft(1)))
	assert.ErrorIs(t, err, ErrSubmissionFailed)
}
