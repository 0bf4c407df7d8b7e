package blogservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/appwrite/sdk-for-go/databases"
	"github.com/appwrite/sdk-for-go/file"
	"github.com/appwrite/sdk-for-go/id"
	"github.com/appwrite/sdk-for-go/permission"
	"github.com/appwrite/sdk-for-go/query"
	"github.com/appwrite/sdk-for-go/role"
	"github.com/appwrite/sdk-for-go/storage"
	"github.com/sushihentaime/blogify/internal/appwrite"
	"github.com/sushihentaime/blogify/internal/common"
)

var (
	_ PostStore = (*AppwritePostStore)(nil)
	_ FileStore = (*AppwriteFileStore)(nil)
)

// appwritePost mirrors the attributes of the posts collection.
type appwritePost struct {
	ID            string    `json:"$id"`
	CreatedAt     time.Time `json:"$createdAt"`
	UpdatedAt     time.Time `json:"$updatedAt"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	FeaturedImage *string   `json:"featuredImage"`
	Status        string    `json:"status"`
	UserID        string    `json:"userId"`
	AuthorName    *string   `json:"authorName"`
}

type appwritePostList struct {
	Total     int            `json:"total"`
	Documents []appwritePost `json:"documents"`
}

func (d *appwritePost) toPost() *Post {
	post := &Post{
		ID:         d.ID,
		Title:      d.Title,
		Content:    d.Content,
		Status:     d.Status,
		UserID:     d.UserID,
		AuthorName: DefaultAuthorName,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.FeaturedImage != nil {
		post.FeaturedImage = *d.FeaturedImage
	}
	if d.AuthorName != nil && *d.AuthorName != "" {
		post.AuthorName = *d.AuthorName
	}
	return post
}

// nullable stores an empty file id as null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// AppwritePostStore keeps posts as documents whose id is the slug. The SDK
// takes no context, so calls run to completion once started.
type AppwritePostStore struct {
	db           *databases.Databases
	databaseID   string
	collectionID string
}

func NewAppwritePostStore(client *appwrite.Client, databaseID, collectionID string) *AppwritePostStore {
	return &AppwritePostStore{db: client.Databases(), databaseID: databaseID, collectionID: collectionID}
}

func (s *AppwritePostStore) Insert(ctx context.Context, post *Post) error {
	defer common.TrackCall("appwrite", "insert_post")()

	data := map[string]any{
		"title":         post.Title,
		"content":       post.Content,
		"featuredImage": nullable(post.FeaturedImage),
		"status":        post.Status,
		"userId":        post.UserID,
		"authorName":    post.AuthorName,
	}

	doc, err := s.db.CreateDocument(s.databaseID, s.collectionID, post.ID, data)
	if err != nil {
		if appwrite.IsConflict(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("could not create post document: %w", err)
	}

	var created appwritePost
	if err := doc.Decode(&created); err != nil {
		return fmt.Errorf("could not decode post document: %w", err)
	}

	post.CreatedAt = created.CreatedAt
	post.UpdatedAt = created.UpdatedAt

	return nil
}

func (s *AppwritePostStore) Get(ctx context.Context, id string) (*Post, error) {
	defer common.TrackCall("appwrite", "get_post")()

	doc, err := s.db.GetDocument(s.databaseID, s.collectionID, id)
	if err != nil {
		if appwrite.IsNotFound(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("could not get post document: %w", err)
	}

	var post appwritePost
	if err := doc.Decode(&post); err != nil {
		return nil, fmt.Errorf("could not decode post document: %w", err)
	}

	return post.toPost(), nil
}

func (s *AppwritePostStore) Update(ctx context.Context, id string, update *PostUpdate) (*Post, error) {
	defer common.TrackCall("appwrite", "update_post")()

	data := map[string]any{}
	if update.Title != nil {
		data["title"] = *update.Title
	}
	if update.Content != nil {
		data["content"] = *update.Content
	}
	if update.FeaturedImage != nil {
		data["featuredImage"] = nullable(*update.FeaturedImage)
	}
	if update.Status != nil {
		data["status"] = *update.Status
	}

	doc, err := s.db.UpdateDocument(s.databaseID, s.collectionID, id, s.db.WithUpdateDocumentData(data))
	if err != nil {
		if appwrite.IsNotFound(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("could not update post document: %w", err)
	}

	var post appwritePost
	if err := doc.Decode(&post); err != nil {
		return nil, fmt.Errorf("could not decode post document: %w", err)
	}

	return post.toPost(), nil
}

func (s *AppwritePostStore) Delete(ctx context.Context, id string) error {
	defer common.TrackCall("appwrite", "delete_post")()

	_, err := s.db.DeleteDocument(s.databaseID, s.collectionID, id)
	if err != nil {
		if appwrite.IsNotFound(err) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("could not delete post document: %w", err)
	}

	return nil
}

func (s *AppwritePostStore) List(ctx context.Context, filter ListFilter) (*PostList, error) {
	defer common.TrackCall("appwrite", "list_posts")()

	queries := []string{query.OrderDesc("$createdAt")}
	if filter.Status != "" {
		queries = append(queries, query.Equal("status", filter.Status))
	}
	if filter.UserID != "" {
		queries = append(queries, query.Equal("userId", filter.UserID))
	}
	if filter.FeaturedImage != "" {
		queries = append(queries, query.Equal("featuredImage", filter.FeaturedImage))
	}
	if filter.Query != "" {
		queries = append(queries, query.Or([]string{
			query.Contains("title", filter.Query),
			query.Contains("content", filter.Query),
		}))
	}
	if filter.Limit > 0 {
		queries = append(queries, query.Limit(filter.Limit))
	}
	if filter.Offset > 0 {
		queries = append(queries, query.Offset(filter.Offset))
	}

	docs, err := s.db.ListDocuments(s.databaseID, s.collectionID, s.db.WithListDocumentsQueries(queries))
	if err != nil {
		return nil, fmt.Errorf("could not list post documents: %w", err)
	}

	// documents nested in a list cannot be decoded one by one
	var page appwritePostList
	if err := docs.Decode(&page); err != nil {
		return nil, fmt.Errorf("could not decode post documents: %w", err)
	}

	list := &PostList{Items: make([]Post, 0, len(page.Documents)), Total: page.Total}
	for i := range page.Documents {
		list.Items = append(list.Items, *page.Documents[i].toPost())
	}

	return list, nil
}

// AppwriteFileStore keeps files in one storage bucket. The uploader holds the
// only delete permission on a file and is read back from it.
type AppwriteFileStore struct {
	storage  *storage.Storage
	client   *appwrite.Client
	bucketID string
}

func NewAppwriteFileStore(client *appwrite.Client, bucketID string) *AppwriteFileStore {
	return &AppwriteFileStore{storage: client.Storage(), client: client, bucketID: bucketID}
}

func (s *AppwriteFileStore) Upload(ctx context.Context, owner, name, contentType string, data []byte) (string, error) {
	defer common.TrackCall("appwrite", "upload_file")()

	permissions := []string{
		permission.Read(role.Any()),
		permission.Delete(role.User(owner, "")),
	}

	created, err := s.storage.CreateFile(s.bucketID, id.Unique(), file.NewInputFileFromBytes(data, name),
		s.storage.WithCreateFilePermissions(permissions))
	if err != nil {
		return "", fmt.Errorf("could not upload file: %w", err)
	}

	return created.Id, nil
}

func (s *AppwriteFileStore) Owner(ctx context.Context, id string) (string, error) {
	defer common.TrackCall("appwrite", "file_owner")()

	f, err := s.storage.GetFile(s.bucketID, id)
	if err != nil {
		if appwrite.IsNotFound(err) {
			return "", ErrRecordNotFound
		}
		return "", fmt.Errorf("could not get file: %w", err)
	}

	return ownerFromPermissions(f.Permissions), nil
}

func (s *AppwriteFileStore) Delete(ctx context.Context, id string) error {
	defer common.TrackCall("appwrite", "delete_file")()

	_, err := s.storage.DeleteFile(s.bucketID, id)
	if err != nil {
		if appwrite.IsNotFound(err) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}

	return nil
}

func (s *AppwriteFileStore) PreviewURL(id string) (string, error) {
	return s.client.FilePreviewURL(s.bucketID, id), nil
}

// ownerFromPermissions finds the user named by a delete("user:ID") permission.
func ownerFromPermissions(permissions []string) string {
	for _, p := range permissions {
		if rest, ok := strings.CutPrefix(p, `delete("user:`); ok {
			owner, _, _ := strings.Cut(rest, `"`)
			owner, _, _ = strings.Cut(owner, "/")
			return owner
		}
	}
	return ""
}
