package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/cleanup"
	"github.com/storefront/admin/internal/storage"
)

type memStore struct {
	mu       sync.Mutex
	products map[string]*Product
	seq      int
	failNext error
}

func newMemStore() *memStore {
	return &memStore{products: map[string]*Product{}}
}

func (m *memStore) Create(ctx context.Context, p Product) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return nil, err
	}
	for _, existing := range m.products {
		if existing.Name == p.Name {
			return nil, ErrAlreadyExists
		}
	}
	m.seq++
	p.ID = fmt.Sprintf("p%d", m.seq)
	m.products[p.ID] = &p
	cp := p
	return &cp, nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) List(ctx context.Context, f ListFilter) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Product{}
	for _, p := range m.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, p Product) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return nil, err
	}
	if _, ok := m.products[p.ID]; !ok {
		return nil, ErrNotFound
	}
	m.products[p.ID] = &p
	cp := p
	return &cp, nil
}

func (m *memStore) Delete(ctx context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.products, id)
	return p, nil
}

type fakeImages struct {
	mu       sync.Mutex
	seq      int
	stored   map[string]bool
	undead   map[string]bool // keys that refuse deletion
	signErr  error
	uploadOK int // number of uploads before failing with ErrUnsupportedType; -1 never fails
	onDelete func()
}

func newFakeImages() *fakeImages {
	return &fakeImages{stored: map[string]bool{}, undead: map[string]bool{}, uploadOK: -1}
}

func (f *fakeImages) Upload(ctx context.Context, data []byte, originalName, mimeType, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadOK == 0 {
		return "", storage.ErrUnsupportedType
	}
	if f.uploadOK > 0 {
		f.uploadOK--
	}
	f.seq++
	key := fmt.Sprintf("%s/%d-%s", folder, f.seq, originalName)
	f.stored[key] = true
	return key, nil
}

func (f *fakeImages) SignedURL(ctx context.Context, key string) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed/" + key, nil
}

func (f *fakeImages) DeleteMany(ctx context.Context, keys []string) storage.DeleteResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onDelete != nil {
		f.onDelete()
	}
	res := storage.DeleteResult{Success: true, DeletedKeys: []string{}, FailedKeys: []string{}}
	for _, k := range keys {
		if f.undead[k] {
			res.FailedKeys = append(res.FailedKeys, k)
			continue
		}
		delete(f.stored, k)
		res.DeletedKeys = append(res.DeletedKeys, k)
	}
	res.Success = len(res.FailedKeys) == 0
	return res
}

func (f *fakeImages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []cleanup.Task
	err   error
}

func (q *fakeQueue) Enqueue(ctx context.Context, resourceType, resourceID string, fileKeys []string) (*cleanup.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	t := cleanup.Task{ResourceType: resourceType, ResourceID: resourceID, FileKeys: fileKeys, Status: cleanup.StatusPending}
	q.tasks = append(q.tasks, t)
	return &t, nil
}

func twoFiles() []File {
	return []File{
		{Name: "front.png", MimeType: "image/png", Data: []byte("a")},
		{Name: "back.png", MimeType: "image/png", Data: []byte("b")},
	}
}

func newTestService() (*Service, *memStore, *fakeImages, *fakeQueue) {
	store, images, queue := newMemStore(), newFakeImages(), &fakeQueue{}
	return NewService(store, images, queue, nil), store, images, queue
}

func TestCreateUploadsAndSigns(t *testing.T) {
	svc, _, images, _ := newTestService()
	v, err := svc.Create(context.Background(), validInput(), twoFiles())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(v.Images) != 2 || len(v.ImageURLs) != 2 {
		t.Fatalf("expected 2 images and urls, got %v %v", v.Images, v.ImageURLs)
	}
	if !strings.HasPrefix(v.Images[0], "products/") {
		t.Fatalf("expected products folder, got %q", v.Images[0])
	}
	if images.count() != 2 {
		t.Fatalf("expected 2 stored objects, got %d", images.count())
	}
}

func TestCreateInvalidInputDoesNotUpload(t *testing.T) {
	svc, _, images, _ := newTestService()
	in := validInput()
	in.Price = -5
	if _, err := svc.Create(context.Background(), in, twoFiles()); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if images.count() != 0 {
		t.Fatalf("expected nothing uploaded, got %d", images.count())
	}
}

func TestCreateReleasesImagesWhenUploadFails(t *testing.T) {
	svc, store, images, _ := newTestService()
	images.uploadOK = 1

	_, err := svc.Create(context.Background(), validInput(), twoFiles())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for rejected file, got %v", err)
	}
	if images.count() != 0 {
		t.Fatalf("expected the first upload to be released, %d objects remain", images.count())
	}
	if len(store.products) != 0 {
		t.Fatalf("expected no product row")
	}
}

func TestCreateReleasesImagesWhenStoreFails(t *testing.T) {
	svc, store, images, queue := newTestService()
	store.failNext = errors.New("db down")

	if _, err := svc.Create(context.Background(), validInput(), twoFiles()); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if images.count() != 0 || len(queue.tasks) != 0 {
		t.Fatalf("expected uploaded images deleted directly, stored=%d queued=%d", images.count(), len(queue.tasks))
	}
}

func TestCreateDuplicateName(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.Create(context.Background(), validInput(), nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), validInput(), nil); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteQueuesUndeletedImages(t *testing.T) {
	svc, store, images, queue := newTestService()
	v, err := svc.Create(context.Background(), validInput(), twoFiles())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	images.undead[v.Images[1]] = true

	if err := svc.Delete(context.Background(), v.ID); err != nil {
		t.Fatalf("delete must succeed despite storage failure, got %v", err)
	}
	if _, ok := store.products[v.ID]; ok {
		t.Fatalf("expected product row removed")
	}
	if len(queue.tasks) != 1 {
		t.Fatalf("expected one cleanup task, got %d", len(queue.tasks))
	}
	task := queue.tasks[0]
	if task.ResourceType != ResourceType || task.ResourceID != v.ID {
		t.Fatalf("unexpected task %+v", task)
	}
	if len(task.FileKeys) != 1 || task.FileKeys[0] != v.Images[1] {
		t.Fatalf("expected only the failed key queued, got %v", task.FileKeys)
	}
}

func TestDeleteSucceedsWhenQueueFails(t *testing.T) {
	svc, _, images, queue := newTestService()
	v, _ := svc.Create(context.Background(), validInput(), twoFiles())
	images.undead[v.Images[0]] = true
	queue.err = errors.New("queue down")

	if err := svc.Delete(context.Background(), v.ID); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestDeleteQueuesImagesAfterClientDisconnect(t *testing.T) {
	svc, _, images, queue := newTestService()
	v, _ := svc.Create(context.Background(), validInput(), twoFiles())
	images.undead[v.Images[0]] = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	images.onDelete = cancel

	if err := svc.Delete(ctx, v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(queue.tasks) != 1 || len(queue.tasks[0].FileKeys) != 1 || queue.tasks[0].FileKeys[0] != v.Images[0] {
		t.Fatalf("expected the undeleted key to be queued, got %+v", queue.tasks)
	}
}

func TestUpdateQueuesOldImagesAfterClientDisconnect(t *testing.T) {
	svc, _, images, queue := newTestService()
	v, _ := svc.Create(context.Background(), validInput(), twoFiles())
	images.undead[v.Images[1]] = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	images.onDelete = cancel

	if _, err := svc.Update(ctx, v.ID, UpdateInput{}, twoFiles()); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(queue.tasks) != 1 || queue.tasks[0].ResourceID != v.ID || queue.tasks[0].FileKeys[0] != v.Images[1] {
		t.Fatalf("expected the old undeleted key to be queued, got %+v", queue.tasks)
	}
}

func TestDeleteCleanRemovalQueuesNothing(t *testing.T) {
	svc, _, images, queue := newTestService()
	v, _ := svc.Create(context.Background(), validInput(), twoFiles())

	if err := svc.Delete(context.Background(), v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if images.count() != 0 || len(queue.tasks) != 0 {
		t.Fatalf("expected all images gone and nothing queued")
	}
	if err := svc.Delete(context.Background(), v.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestUpdateReplacesImages(t *testing.T) {
	svc, _, images, _ := newTestService()
	v, _ := svc.Create(context.Background(), validInput(), twoFiles())
	old := append([]string(nil), v.Images...)

	price := 25.0
	updated, err := svc.Update(context.Background(), v.ID, UpdateInput{Price: &price},
		[]File{{Name: "new.webp", MimeType: "image/webp", Data: []byte("c")}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Price != 25 || len(updated.Images) != 1 {
		t.Fatalf("unexpected update %+v", updated.Product)
	}
	for _, k := range old {
		if images.stored[k] {
			t.Fatalf("old image %q should have been released", k)
		}
	}
	if !images.stored[updated.Images[0]] {
		t.Fatalf("new image should be stored")
	}
}

func TestUpdateFailureReleasesNewImages(t *testing.T) {
	svc, store, images, _ := newTestService()
	v, _ := svc.Create(context.Background(), validInput(), twoFiles())
	store.failNext = errors.New("db down")

	_, err := svc.Update(context.Background(), v.ID, UpdateInput{},
		[]File{{Name: "new.png", MimeType: "image/png", Data: []byte("c")}})
	if err == nil {
		t.Fatalf("expected failure")
	}
	if images.count() != 2 {
		t.Fatalf("expected only the original 2 images to remain, got %d", images.count())
	}
}

func TestAdjustStock(t *testing.T) {
	svc, _, _, _ := newTestService()
	v, _ := svc.Create(context.Background(), validInput(), nil)

	got, err := svc.AdjustStock(context.Background(), v.ID, 4)
	if err != nil || got.Stock != 7 {
		t.Fatalf("expected stock 7, got %d (%v)", got.Stock, err)
	}
	if _, err := svc.AdjustStock(context.Background(), v.ID, -8); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestSigningFailureYieldsEmptyURLs(t *testing.T) {
	svc, _, images, _ := newTestService()
	v, _ := svc.Create(context.Background(), validInput(), twoFiles())
	images.signErr = errors.New("sign failed")

	got, err := svc.Get(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.ImageURLs) != 0 || len(got.Images) != 2 {
		t.Fatalf("expected keys kept and no urls, got %+v", got)
	}
}

func TestTooManyFiles(t *testing.T) {
	svc, _, images, _ := newTestService()
	files := make([]File, MaxImages+1)
	for i := range files {
		files[i] = File{Name: fmt.Sprintf("%d.png", i), MimeType: "image/png", Data: []byte("x")}
	}
	if _, err := svc.Create(context.Background(), validInput(), files); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if images.count() != 0 {
		t.Fatalf("expected no uploads")
	}
}
