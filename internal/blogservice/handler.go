package blogservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sushihentaime/blogify/internal/common"
	"github.com/sushihentaime/blogify/internal/content"
)

const (
	excerptLength  = 150
	maxUploadBytes = 10 << 20

	postCacheTTL = 5 * time.Minute
	listCacheTTL = 30 * time.Second
)

// NewBlogService wires the service. A nil Generator makes the AI helpers answer
// with mock content and a nil Cleaner deletes replaced files inline.
func NewBlogService(cfg Config, cache *common.Cache, logger *slog.Logger) *BlogService {
	s := &BlogService{
		posts:       cfg.Posts,
		files:       cfg.Files,
		ai:          cfg.Generator,
		cleaner:     cfg.Cleaner,
		imageSource: strings.TrimRight(cfg.ImageSourceURL, "/"),
		http:        &http.Client{Timeout: 30 * time.Second},
		c:           cache,
		logger:      logger,
	}

	if s.cleaner == nil {
		s.cleaner = NewInlineCleaner(cfg.Files, logger)
	}
	if s.imageSource == "" {
		s.imageSource = defaultImageSource
	}

	return s
}

type CreatePostRequest struct {
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Content       string `json:"content"`
	FeaturedImage string `json:"featured_image"`
	Status        string `json:"status"`
	UserID        string `json:"-"`
	AuthorName    string `json:"-"`
}

// CreatePost validates the request and stores a new post. The slug defaults to
// the title and is always normalized.
func (s *BlogService) CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	slug := req.Slug
	if strings.TrimSpace(slug) == "" {
		slug = req.Title
	}
	slug = content.Slugify(slug)

	status := req.Status
	if status == "" {
		status = StatusActive
	}

	author := strings.TrimSpace(req.AuthorName)
	if author == "" {
		author = DefaultAuthorName
	}

	title := strings.TrimSpace(req.Title)

	v := common.NewValidator()
	validateTitle(v, title)
	validateSlug(v, slug)
	validateContent(v, req.Content)
	validateStatus(v, status)
	validateFeaturedImage(v, req.FeaturedImage)
	validateID(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if req.FeaturedImage != "" {
		if err := s.checkImageOwner(ctx, req.UserID, req.FeaturedImage); err != nil {
			return nil, err
		}
	}

	post := &Post{
		ID:            slug,
		Title:         title,
		Content:       sanitizeHTML(req.Content),
		FeaturedImage: req.FeaturedImage,
		Status:        status,
		UserID:        req.UserID,
		AuthorName:    author,
	}

	if err := s.posts.Insert(ctx, post); err != nil {
		return nil, err
	}

	s.c.DeletePrefix(common.CacheKeyPostsPrefix())

	return withDerived(post), nil
}

type UpdatePostRequest struct {
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	FeaturedImage *string `json:"featured_image"`
	Status        *string `json:"status"`
}

// UpdatePost applies a partial update. Only the owner may update a post. A
// replaced featured image is handed to the cleaner once the update is stored.
func (s *BlogService) UpdatePost(ctx context.Context, id, userID string, req *UpdatePostRequest) (*Post, error) {
	v := common.NewValidator()
	validateID(v, id, "id")
	validateID(v, userID, "user_id")

	update := &PostUpdate{FeaturedImage: req.FeaturedImage, Status: req.Status}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		validateTitle(v, title)
		update.Title = &title
	}
	if req.Content != nil {
		validateContent(v, *req.Content)
		html := sanitizeHTML(*req.Content)
		update.Content = &html
	}
	if req.Status != nil {
		validateStatus(v, *req.Status)
	}
	if req.FeaturedImage != nil {
		validateFeaturedImage(v, *req.FeaturedImage)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	existing, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.UserID != userID {
		return nil, ErrNotOwner
	}

	if update.empty() {
		return withDerived(existing), nil
	}

	replaced := req.FeaturedImage != nil && existing.FeaturedImage != *req.FeaturedImage
	if replaced && *req.FeaturedImage != "" {
		if err := s.checkImageOwner(ctx, userID, *req.FeaturedImage); err != nil {
			return nil, err
		}
	}

	post, err := s.posts.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.invalidate(id)

	if replaced && existing.FeaturedImage != "" {
		s.releaseImage(ctx, existing.FeaturedImage)
	}

	return withDerived(post), nil
}

// DeletePost removes the post and then its featured image. Only the owner may delete a post.
func (s *BlogService) DeletePost(ctx context.Context, id, userID string) error {
	v := common.NewValidator()
	validateID(v, id, "id")
	validateID(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return err
	}

	if post.UserID != userID {
		return ErrNotOwner
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(id)

	if post.FeaturedImage != "" {
		s.releaseImage(ctx, post.FeaturedImage)
	}

	return nil
}

// GetPost returns ErrRecordNotFound when no post has the given id.
func (s *BlogService) GetPost(ctx context.Context, id string) (*Post, error) {
	v := common.NewValidator()
	validateID(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyPost(id)
	if cached, found := s.c.Get(key); found {
		post := cached.(Post)
		return &post, nil
	}

	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	post = withDerived(post)
	s.c.Set(key, *post, postCacheTTL)

	return post, nil
}

// ListPosts returns posts newest first. Limit defaults to 25 and is capped at
// 100. A non-empty Query keeps posts whose title or content contains it.
func (s *BlogService) ListPosts(ctx context.Context, filter ListFilter) (*PostList, error) {
	filter.Query = strings.TrimSpace(filter.Query)

	v := common.NewValidator()
	if filter.Status != "" {
		validateStatus(v, filter.Status)
	}
	validateQuery(v, filter.Query)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	// Reference lookups go straight to the store.
	filter.FeaturedImage = ""

	switch {
	case filter.Limit < 1:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}

	if filter.Offset < 0 {
		filter.Offset = 0
	}

	key := common.CacheKeyPosts(filter.Status, filter.UserID, filter.Query, filter.Limit, filter.Offset)
	if cached, found := s.c.Get(key); found {
		list := cached.(PostList)
		return &list, nil
	}

	list, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]Post, 0, len(list.Items))
	for i := range list.Items {
		items = append(items, *withDerived(&list.Items[i]))
	}

	result := PostList{Items: items, Total: list.Total}
	s.c.Set(key, result, listCacheTTL)

	return &result, nil
}

// UploadFile stores an image owned by userID. An empty or generic content type
// is sniffed from the data.
func (s *BlogService) UploadFile(ctx context.Context, userID, name, contentType string, data []byte) (*FileRef, error) {
	contentType = normalizeContentType(contentType, data)

	v := common.NewValidator()
	validateID(v, userID, "user_id")
	validateImage(v, contentType, len(data))
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if name == "" {
		name = uuid.NewString()
	}

	id, err := s.files.Upload(ctx, userID, name, contentType, data)
	if err != nil {
		return nil, err
	}

	return &FileRef{ID: id, URL: s.PreviewURL(id)}, nil
}

// DeleteFile removes a file uploaded by userID. Files still used as a featured
// image are kept and reported as ErrFileInUse.
func (s *BlogService) DeleteFile(ctx context.Context, userID, fileID string) error {
	v := common.NewValidator()
	validateID(v, userID, "user_id")
	validateID(v, fileID, "file_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	owner, err := s.files.Owner(ctx, fileID)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrNotOwner
	}

	refs, err := s.posts.List(ctx, ListFilter{FeaturedImage: fileID, Limit: 1})
	if err != nil {
		return err
	}
	if refs.Total > 0 || len(refs.Items) > 0 {
		return ErrFileInUse
	}

	return s.files.Delete(ctx, fileID)
}

// checkImageOwner fails with a validation error on featured_image unless
// fileID names a file that userID uploaded.
func (s *BlogService) checkImageOwner(ctx context.Context, userID, fileID string) error {
	owner, err := s.files.Owner(ctx, fileID)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return featuredImageError("must reference an uploaded file")
	case err != nil:
		return err
	case owner != userID:
		return featuredImageError("must reference a file you uploaded")
	}
	return nil
}

func featuredImageError(message string) error {
	v := common.NewValidator()
	v.AddError("featured_image", message)
	return v.ValidationError()
}

// PreviewURL never fails: an empty id or a store error yields an empty string.
func (s *BlogService) PreviewURL(fileID string) string {
	if fileID == "" {
		return ""
	}

	url, err := s.files.PreviewURL(fileID)
	if err != nil {
		s.logger.Error("could not build preview URL", slog.String("file_id", fileID), slog.String("error", err.Error()))
		return ""
	}

	return url
}

func (s *BlogService) invalidate(id string) {
	s.c.Delete(common.CacheKeyPost(id))
	s.c.DeletePrefix(common.CacheKeyPostsPrefix())
}

// releaseImage hands fileID to the cleaner unless another post still uses it.
func (s *BlogService) releaseImage(ctx context.Context, fileID string) {
	refs, err := s.posts.List(ctx, ListFilter{FeaturedImage: fileID, Limit: 1})
	if err != nil {
		s.logger.Error("could not check file references", slog.String("file_id", fileID), slog.String("error", err.Error()))
		return
	}
	if refs.Total > 0 || len(refs.Items) > 0 {
		s.logger.Info("file still referenced, skipping cleanup", slog.String("file_id", fileID))
		return
	}

	s.scheduleCleanup(ctx, fileID)
}

func (s *BlogService) scheduleCleanup(ctx context.Context, fileID string) {
	if err := s.cleaner.Schedule(ctx, fileID); err != nil {
		s.logger.Error("could not schedule file cleanup", slog.String("file_id", fileID), slog.String("error", err.Error()))
	}
}

func withDerived(p *Post) *Post {
	out := *p
	text := content.StripHTML(p.Content)
	out.Excerpt = content.Excerpt(p.Content, excerptLength)
	out.ReadMinutes = content.EstimateReadMinutes(text)
	return &out
}

func normalizeContentType(contentType string, data []byte) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
		if i := strings.IndexByte(contentType, ';'); i >= 0 {
			contentType = contentType[:i]
		}
	}

	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}

	return contentType
}
