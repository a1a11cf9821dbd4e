package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipstershop/k6-harvester/internal/common/harvesterrors"
	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

type receivedObject struct {
	path        string
	body        string
	contentType string
}

// fakeObjectStore accepts path style PUT requests the way S3 and MinIO do.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects []receivedObject
}

func (s *fakeObjectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	s.objects = append(s.objects, receivedObject{
		path:        r.URL.Path,
		body:        string(body),
		contentType: r.Header.Get("Content-Type"),
	})
	s.mu.Unlock()
	w.Header().Set("ETag", `"9b2cf535f27731c974343645a3985328"`)
	w.WriteHeader(http.StatusOK)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "k6/summary-1.json", Key("k6", "summary-1.json"))
	assert.Equal(t, "k6-2022-10-18/01gfk/latency-2.csv", Key("k6-2022-10-18/01gfk", "latency-2.csv"))
}

func TestFilesystemUploader(t *testing.T) {
	fs := afero.NewMemMapFs()
	uploader := NewFilesystemUploaderFromFs(fs)

	location, err := uploader.Upload(context.Background(), "k6/latency-1.csv", []byte("value\n1\n"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("k6/latency-1.csv"), location)

	content, err := afero.ReadFile(fs, filepath.FromSlash("k6/latency-1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "value\n1\n", string(content))
}

func TestFilesystemUploader_Directory(t *testing.T) {
	root := t.TempDir()
	uploader, err := NewFilesystemUploader(root)
	require.NoError(t, err)

	location, err := uploader.Upload(context.Background(), "k6/summary-1.json", []byte("{}"), "application/json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "k6", "summary-1.json"), location)
}

func TestS3Uploader(t *testing.T) {
	store := &fakeObjectStore{}
	server := httptest.NewServer(store)
	defer server.Close()

	uploader, err := NewS3Uploader(configuration.StorageConfig{
		Type:           configuration.StorageTypeS3,
		Bucket:         "hipstershop-k6",
		Region:         "us-east-1",
		Endpoint:       server.URL,
		AccessKey:      "access",
		SecretKey:      "secret",
		ForcePathStyle: true,
	})
	require.NoError(t, err)

	_, err = uploader.Upload(context.Background(), "k6/summary-1.json", []byte(`{"metrics":{}}`), "application/json")
	require.NoError(t, err)

	require.Len(t, store.objects, 1)
	assert.Equal(t, "/hipstershop-k6/k6/summary-1.json", store.objects[0].path)
	assert.Equal(t, `{"metrics":{}}`, store.objects[0].body)
	assert.Equal(t, "application/json", store.objects[0].contentType)
}

func TestMinioUploader(t *testing.T) {
	store := &fakeObjectStore{}
	server := httptest.NewServer(store)
	defer server.Close()
	endpoint, err := url.Parse(server.URL)
	require.NoError(t, err)

	uploader, err := NewMinioUploader(configuration.StorageConfig{
		Type:      configuration.StorageTypeMinio,
		Bucket:    "hipstershop-k6",
		Region:    "us-east-1",
		Endpoint:  endpoint.Host,
		AccessKey: "access",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	location, err := uploader.Upload(context.Background(), "k6/latency-1.csv", []byte("value\n1\n"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/hipstershop-k6/k6/latency-1.csv", location)

	require.Len(t, store.objects, 1)
	assert.Equal(t, "/hipstershop-k6/k6/latency-1.csv", store.objects[0].path)
	// Over plain http the payload is sent with aws-chunked signing, so only look for the content.
	assert.Contains(t, store.objects[0].body, "value\n1\n")
	assert.Equal(t, "text/csv", store.objects[0].contentType)
}

type flakyUploader struct {
	failures int
	calls    int
}

func (u *flakyUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	u.calls++
	if u.calls <= u.failures {
		return "", errors.New("connection reset by peer")
	}
	return "mem://" + key, nil
}

func TestWithRetries_EventuallySucceeds(t *testing.T) {
	flaky := &flakyUploader{failures: 2}
	location, err := WithRetries(flaky, 3, 0).Upload(context.Background(), "k6/summary-1.json", nil, "application/json")
	require.NoError(t, err)
	assert.Equal(t, "mem://k6/summary-1.json", location)
	assert.Equal(t, 3, flaky.calls)
}

func TestWithRetries_GivesUp(t *testing.T) {
	flaky := &flakyUploader{failures: 5}
	_, err := WithRetries(flaky, 3, 0).Upload(context.Background(), "k6/summary-1.json", nil, "application/json")
	assert.EqualError(t, err, "connection reset by peer")
	assert.Equal(t, 3, flaky.calls)
}

func TestWithRetries_SingleAttempt(t *testing.T) {
	flaky := &flakyUploader{}
	assert.Same(t, flaky, WithRetries(flaky, 1, 0))
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(configuration.StorageConfig{Type: "ftp"})
	var e *harvesterrors.ErrInvalidArgument
	assert.True(t, errors.As(err, &e))
}

func TestNew_Filesystem(t *testing.T) {
	uploader, err := New(configuration.StorageConfig{
		Type:           configuration.StorageTypeFilesystem,
		Directory:      t.TempDir(),
		UploadAttempts: 2,
	})
	require.NoError(t, err)
	assert.IsType(t, &retryingUploader{}, uploader)
}
