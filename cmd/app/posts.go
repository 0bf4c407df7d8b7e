package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sushihentaime/blogify/internal/blogservice"
	"github.com/sushihentaime/blogify/internal/common"
	"github.com/sushihentaime/blogify/internal/userservice"
)

// listPostsHandler answers with an empty list when the store fails. The q
// parameter searches titles and content.
func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	filter := blogservice.ListFilter{
		Status: blogservice.StatusActive,
		Query:  r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}

	list, err := app.blogService.ListPosts(r.Context(), filter)
	if err != nil {
		var validationErr common.ValidationError
		if errors.As(err, &validationErr) {
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
			return
		}
		app.logger.Error("could not list posts", slog.String("error", err.Error()))
		list = &blogservice.PostList{Items: []blogservice.Post{}}
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": list}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var input blogservice.CreatePostRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	profile := app.currentProfile(r)
	input.UserID = profile.ID
	input.AuthorName = profile.Name

	post, err := app.blogService.CreatePost(r.Context(), &input)
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.Is(err, blogservice.ErrDuplicateSlug):
			app.conflictErrorResponse(w, r, "a post with this slug already exists")
		case errors.Is(err, blogservice.ErrUnknownUser):
			app.failedValidationErrorResponse(w, r, map[string]string{"user_id": "does not exist"})
		case errors.As(err, &validationErr):
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/v1/posts/"+post.ID)

	err = app.writeJSON(w, http.StatusCreated, envelope{"post": post}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// getPostHandler hides inactive posts from everyone but their owner.
func (app *application) getPostHandler(w http.ResponseWriter, r *http.Request) {
	post, ok := app.findPost(w, r)
	if !ok {
		return
	}

	if post.Status != blogservice.StatusActive && !ownedBy(post, app.currentProfile(r)) {
		app.notFoundErrorResponse(w, r)
		return
	}

	err := app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	var input blogservice.UpdatePostRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	post, err := app.blogService.UpdatePost(r.Context(), app.readParam(r, "slug"), app.currentProfile(r).ID, &input)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	err := app.blogService.DeletePost(r.Context(), app.readParam(r, "slug"), app.currentProfile(r).ID)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) toggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	post, ok := app.findPost(w, r)
	if !ok {
		return
	}

	liked, err := app.userService.ToggleLike(r.Context(), userservice.ClientKey(app.getSecretContext(r)), post.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"liked": liked}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// findPost writes the error response itself when it returns false.
func (app *application) findPost(w http.ResponseWriter, r *http.Request) (*blogservice.Post, bool) {
	post, err := app.blogService.GetPost(r.Context(), app.readParam(r, "slug"))
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound), errors.As(err, &validationErr):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return nil, false
	}

	return post, true
}

func (app *application) postErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr common.ValidationError
	switch {
	case errors.Is(err, blogservice.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.Is(err, blogservice.ErrNotOwner):
		app.forbiddenErrorResponse(w, r)
	case errors.As(err, &validationErr):
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func ownedBy(post *blogservice.Post, profile *userservice.Profile) bool {
	return profile != nil && post.UserID == profile.ID
}
