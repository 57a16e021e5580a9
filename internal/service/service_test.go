package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/atelierhq/atelier/internal/db"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/provider"
	"github.com/atelierhq/atelier/internal/repository"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	err = db.RunMigrations(conn.DB, "sqlite")
	if err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return conn
}

// memStorage is an in-memory Storage for tests. Blob URLs look like the S3
// ones so the managed-namespace check has something real to chew on.
type memStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

const memStorageBase = "https://store.test/bucket"

func newMemStorage() *memStorage {
	return &memStorage{blobs: make(map[string][]byte)}
}

func (m *memStorage) Save(ctx context.Context, key string, body io.Reader, contentType string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = b
	return nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return fmt.Errorf("no such blob: %s", key)
	}
	delete(m.blobs, key)
	return nil
}

func (m *memStorage) PublicURL(key string) string {
	return memStorageBase + "/" + key
}

func (m *memStorage) Key(url string) (string, bool) {
	prefix := memStorageBase + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (m *memStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// stubProvider returns canned responses and serves canned bytes for the
// result URL.
type stubProvider struct {
	resp    *provider.ImageResponse
	err     error
	entered chan struct{} // closed signals: closed when a call starts (optional)
	release chan struct{} // call blocks until closed (optional)

	mu        sync.Mutex
	calls     int
	editCalls int
}

func (p *stubProvider) generate() (*provider.ImageResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.release != nil {
		<-p.release
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}

func (p *stubProvider) GenerateImage(ctx context.Context, prompt string, params model.GenerationParameters) (*provider.ImageResponse, error) {
	return p.generate()
}

func (p *stubProvider) GenerateFromImage(ctx context.Context, prompt string, imageURLs []string, params model.GenerationParameters) (*provider.ImageResponse, error) {
	p.mu.Lock()
	p.editCalls++
	p.mu.Unlock()
	return p.generate()
}

func (p *stubProvider) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("png-bytes")), nil
}

func newFixture(t *testing.T) (*MediaService, *GenerationService, *memStorage, *stubProvider, repository.MediaRepository) {
	t.Helper()

	conn := testDB(t)
	folderRepo := repository.NewFolderRepository(conn)
	mediaRepo := repository.NewMediaRepository(conn)
	store := newMemStorage()
	gen := &stubProvider{
		resp: &provider.ImageResponse{
			Images: []provider.Image{{URL: "https://ephemeral.provider/abc.png", Width: 1024, Height: 1024, ContentType: "image/png"}},
		},
	}

	media := NewMediaService(folderRepo, mediaRepo, store)
	generation := NewGenerationService(mediaRepo, media, store, gen)

	return media, generation, store, gen, mediaRepo
}
