package handler

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/atelierhq/atelier/internal/db"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/provider"
	"github.com/atelierhq/atelier/internal/repository"
	"github.com/atelierhq/atelier/internal/service"
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

const fakeStoreBase = "https://store.test/bucket"

type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[string][]byte)}
}

func (f *fakeStorage) Save(ctx context.Context, key string, body io.Reader, contentType string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = b
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return fakeStoreBase + "/" + key
}

func (f *fakeStorage) Key(url string) (string, bool) {
	prefix := fakeStoreBase + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

type fakeProvider struct {
	resp *provider.ImageResponse
	err  error
}

func (p *fakeProvider) GenerateImage(ctx context.Context, prompt string, params model.GenerationParameters) (*provider.ImageResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}

func (p *fakeProvider) GenerateFromImage(ctx context.Context, prompt string, imageURLs []string, params model.GenerationParameters) (*provider.ImageResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}

func (p *fakeProvider) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("png-bytes")), nil
}

func newServices(t *testing.T, gen *fakeProvider) (*service.MediaService, *service.GenerationService) {
	t.Helper()

	conn := testDB(t)
	folderRepo := repository.NewFolderRepository(conn)
	mediaRepo := repository.NewMediaRepository(conn)
	store := newFakeStorage()

	media := service.NewMediaService(folderRepo, mediaRepo, store)
	generation := service.NewGenerationService(mediaRepo, media, store, gen)

	return media, generation
}
