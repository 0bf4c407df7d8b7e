package blogservice

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	_ PostStore = (*MemoryPostStore)(nil)
	_ FileStore = (*MemoryFileStore)(nil)
)

type memoryPost struct {
	post Post
	seq  int64
}

// MemoryPostStore keeps posts in process. It is meant for development and tests.
type MemoryPostStore struct {
	mu    sync.Mutex
	posts map[string]*memoryPost
	seq   int64
	now   func() time.Time
}

func NewMemoryPostStore() *MemoryPostStore {
	return &MemoryPostStore{
		posts: make(map[string]*memoryPost),
		now:   time.Now,
	}
}

func (m *MemoryPostStore) Insert(ctx context.Context, post *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[post.ID]; ok {
		return ErrDuplicateSlug
	}

	now := m.now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	m.seq++
	m.posts[post.ID] = &memoryPost{post: *post, seq: m.seq}

	return nil
}

func (m *MemoryPostStore) Get(ctx context.Context, id string) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	post := p.post
	return &post, nil
}

func (m *MemoryPostStore) Update(ctx context.Context, id string, update *PostUpdate) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	if update.Title != nil {
		p.post.Title = *update.Title
	}
	if update.Content != nil {
		p.post.Content = *update.Content
	}
	if update.FeaturedImage != nil {
		p.post.FeaturedImage = *update.FeaturedImage
	}
	if update.Status != nil {
		p.post.Status = *update.Status
	}
	p.post.UpdatedAt = m.now().UTC()

	post := p.post
	return &post, nil
}

func (m *MemoryPostStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return ErrRecordNotFound
	}

	delete(m.posts, id)
	return nil
}

// List orders by creation time, newest first, and by insertion order on ties.
func (m *MemoryPostStore) List(ctx context.Context, filter ListFilter) (*PostList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query := strings.ToLower(filter.Query)

	matched := make([]*memoryPost, 0, len(m.posts))
	for _, p := range m.posts {
		if filter.Status != "" && p.post.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && p.post.UserID != filter.UserID {
			continue
		}
		if filter.FeaturedImage != "" && p.post.FeaturedImage != filter.FeaturedImage {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.post.Title), query) && !strings.Contains(strings.ToLower(p.post.Content), query) {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].post.CreatedAt.Equal(matched[j].post.CreatedAt) {
			return matched[i].post.CreatedAt.After(matched[j].post.CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})

	list := &PostList{Items: []Post{}, Total: len(matched)}
	for i := filter.Offset; i < len(matched) && (filter.Limit <= 0 || len(list.Items) < filter.Limit); i++ {
		list.Items = append(list.Items, matched[i].post)
	}

	return list, nil
}

type memoryFile struct {
	owner       string
	name        string
	contentType string
	data        []byte
}

// MemoryFileStore keeps uploaded files in process.
type MemoryFileStore struct {
	mu      sync.Mutex
	files   map[string]memoryFile
	baseURL string
}

// NewMemoryFileStore creates a store whose preview URLs are baseURL/{id}.
func NewMemoryFileStore(baseURL string) *MemoryFileStore {
	return &MemoryFileStore{files: make(map[string]memoryFile), baseURL: baseURL}
}

func (m *MemoryFileStore) Upload(ctx context.Context, owner, name, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.files[id] = memoryFile{owner: owner, name: name, contentType: contentType, data: append([]byte(nil), data...)}

	return id, nil
}

func (m *MemoryFileStore) Owner(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[id]
	if !ok {
		return "", ErrRecordNotFound
	}

	return f.owner, nil
}

func (m *MemoryFileStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[id]; !ok {
		return ErrRecordNotFound
	}

	delete(m.files, id)
	return nil
}

func (m *MemoryFileStore) PreviewURL(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[id]; !ok {
		return "", ErrRecordNotFound
	}

	return m.baseURL + "/" + id, nil
}

// Open returns the content and content type of a stored file.
func (m *MemoryFileStore) Open(id string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[id]
	if !ok {
		return nil, "", ErrRecordNotFound
	}

	return f.data, f.contentType, nil
}
