package document

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/medcrew/config"
)

var ErrNotFound = errors.New("document not found")

// Document is one rendered result
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"-"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// New renders body under the standard title and assigns a fresh id. Body holds the
// canonical form of body, which is exactly what ExtractText returns for it.
func New(body string) (Document, error) {
	body = Canonical(body)
	data, err := Render(Title, body)
	if err != nil {
		return Document{}, err
	}
	return Document{
		ID:        uuid.NewString(),
		Title:     Title,
		Body:      body,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Store keeps rendered documents. Latest returns the most recent Save of this process.
type Store interface {
	Save(ctx context.Context, doc Document) error
	Latest(ctx context.Context) (Document, error)
	Get(ctx context.Context, id string) (Document, error)
}

// NewStore builds the store selected by cfg.
func NewStore(cfg config.DocumentConfig, logger *log.Logger) (Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return NewMemoryStore(cfg.Keep), nil
	case config.StoreFile:
		return NewFileStore(cfg.Dir, cfg.Keep, logger)
	default:
		return nil, &config.ConfigurationError{Key: "document.store", Reason: fmt.Sprintf("unsupported value %q", cfg.Store)}
	}
}

// MemoryStore keeps the last keep documents in memory
type MemoryStore struct {
	mu    sync.RWMutex
	keep  int
	order []string
	docs  map[string]Document
}

func NewMemoryStore(keep int) *MemoryStore {
	if keep < 1 {
		keep = 1
	}
	return &MemoryStore{keep: keep, docs: make(map[string]Document)}
}

func (m *MemoryStore) Save(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return errors.New("document id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[doc.ID]; !exists {
		m.order = append(m.order, doc.ID)
	}
	m.docs[doc.ID] = doc
	for len(m.order) > m.keep {
		delete(m.docs, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *MemoryStore) Latest(ctx context.Context) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return Document{}, ErrNotFound
	}
	return m.docs[m.order[len(m.order)-1]], nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// FileStore writes <dir>/<id>.docx for every document and mirrors the latest one to
// <dir>/diagnosis_and_treatment_plan.docx. Only documents saved by this process are served.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	keep   int
	order  []string
	latest *Document
	logger *log.Logger
}

func NewFileStore(dir string, keep int, logger *log.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("document store: %w", err)
	}
	if keep < 1 {
		keep = 1
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[DOCS] ", log.LstdFlags)
	}
	return &FileStore{dir: dir, keep: keep, logger: logger}, nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+".docx")
}

func (f *FileStore) Save(ctx context.Context, doc Document) error {
	if _, err := uuid.Parse(doc.ID); err != nil {
		return fmt.Errorf("document id %q: %w", doc.ID, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := writeAtomic(f.dir, f.path(doc.ID), doc.Data); err != nil {
		return err
	}
	if err := writeAtomic(f.dir, filepath.Join(f.dir, Filename), doc.Data); err != nil {
		if rmErr := os.Remove(f.path(doc.ID)); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			f.logger.Printf("cleanup %s: %v", doc.ID, rmErr)
		}
		return err
	}
	f.order = append(f.order, doc.ID)
	for len(f.order) > f.keep {
		old := f.order[0]
		f.order = f.order[1:]
		if err := os.Remove(f.path(old)); err != nil && !errors.Is(err, os.ErrNotExist) {
			f.logger.Printf("evict %s: %v", old, err)
		}
	}
	stored := doc
	stored.Data = nil
	f.latest = &stored
	f.logger.Printf("saved document %s (%d bytes)", doc.ID, len(doc.Data))
	return nil
}

func (f *FileStore) Latest(ctx context.Context) (Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return Document{}, ErrNotFound
	}
	doc := *f.latest

	data, err := os.ReadFile(filepath.Join(f.dir, Filename))
	if err != nil {
		return Document{}, fmt.Errorf("read latest document: %w", err)
	}
	doc.Data = data
	return doc, nil
}

func (f *FileStore) Get(ctx context.Context, id string) (Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Document{}, ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	known := false
	for _, v := range f.order {
		if v == id {
			known = true
			break
		}
	}
	var meta Document
	if f.latest != nil && f.latest.ID == id {
		meta = *f.latest
	}
	if !known {
		return Document{}, ErrNotFound
	}

	data, err := os.ReadFile(f.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("read document %s: %w", id, err)
	}
	meta.ID = id
	meta.Data = data
	if meta.Title == "" {
		meta.Title = Title
	}
	return meta, nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".doc-*.tmp")
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
