package blogservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sushihentaime/blogify/internal/aiservice"
	"github.com/sushihentaime/blogify/internal/common"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	DefaultAuthorName = "Anonymous"

	DefaultListLimit = 25
	MaxListLimit     = 100
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateSlug  = errors.New("a post with this slug already exists")
	ErrNotOwner       = errors.New("resource belongs to another user")
	ErrFileInUse      = errors.New("file is the featured image of a post")
)

type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	FeaturedImage string    `json:"featured_image"`
	Status        string    `json:"status"`
	UserID        string    `json:"user_id"`
	AuthorName    string    `json:"author_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	// Excerpt and ReadMinutes are derived from Content on read.
	Excerpt     string `json:"excerpt"`
	ReadMinutes int    `json:"read_minutes"`
}

// PostUpdate holds the mutable attributes of a post. Nil fields are left unchanged.
type PostUpdate struct {
	Title         *string
	Content       *string
	FeaturedImage *string
	Status        *string
}

func (u *PostUpdate) empty() bool {
	return u.Title == nil && u.Content == nil && u.FeaturedImage == nil && u.Status == nil
}

// ListFilter selects posts. Empty fields match every post.
type ListFilter struct {
	Status string
	UserID string
	// FeaturedImage matches posts using this file as their image.
	FeaturedImage string
	// Query matches a case-insensitive substring of the title or content.
	Query  string
	Limit  int
	Offset int
}

type PostList struct {
	Items []Post `json:"items"`
	Total int    `json:"total"`
}

type FileRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Draft is an AI generated post ready to be edited and created.
type Draft struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
}

// PostStore persists posts. Stores assign CreatedAt and UpdatedAt and return
// ErrRecordNotFound for a missing id.
type PostStore interface {
	Insert(ctx context.Context, post *Post) error
	Get(ctx context.Context, id string) (*Post, error)
	Update(ctx context.Context, id string, update *PostUpdate) (*Post, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) (*PostList, error)
}

// FileStore keeps uploaded images together with the id of the user who
// uploaded them. Owner and Delete return ErrRecordNotFound for a missing file.
type FileStore interface {
	Upload(ctx context.Context, owner, name, contentType string, data []byte) (string, error)
	Owner(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	PreviewURL(id string) (string, error)
}

// Generator completes chat prompts. *aiservice.Proxy and *aiservice.Client implement it.
type Generator interface {
	Complete(ctx context.Context, messages []aiservice.Message, maxTokens int) (string, error)
}

// FileCleaner removes files no post references anymore.
type FileCleaner interface {
	Schedule(ctx context.Context, fileID string) error
}

type Config struct {
	Posts     PostStore
	Files     FileStore
	Generator Generator
	Cleaner   FileCleaner
	// ImageSourceURL serves placeholder images at /seed/{seed}/{width}/{height}.
	ImageSourceURL string
}

type BlogService struct {
	posts       PostStore
	files       FileStore
	ai          Generator
	cleaner     FileCleaner
	imageSource string
	http        *http.Client
	c           *common.Cache
	logger      *slog.Logger
}
