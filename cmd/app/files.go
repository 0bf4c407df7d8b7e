package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/sushihentaime/blogify/internal/blogservice"
	"github.com/sushihentaime/blogify/internal/common"
)

const maxUploadBytes = 10 << 20

func (app *application) uploadFileHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(1<<20))

	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil {
		app.badRequestErrorResponse(w, r, errors.New("request body must be a multipart form of at most 10MB"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		app.failedValidationErrorResponse(w, r, map[string]string{"file": "must be provided"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	ref, err := app.blogService.UploadFile(r.Context(), app.currentProfile(r).ID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.As(err, &validationErr):
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"file": ref}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteFileHandler removes an upload of the current user that no post uses.
func (app *application) deleteFileHandler(w http.ResponseWriter, r *http.Request) {
	err := app.blogService.DeleteFile(r.Context(), app.currentProfile(r).ID, app.readParam(r, "id"))
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, blogservice.ErrNotOwner):
			app.forbiddenErrorResponse(w, r)
		case errors.Is(err, blogservice.ErrFileInUse):
			app.conflictErrorResponse(w, r, "file is the featured image of a post")
		case errors.As(err, &validationErr):
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "file successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) previewFileHandler(w http.ResponseWriter, r *http.Request) {
	url := app.blogService.PreviewURL(app.readParam(r, "id"))
	if url == "" {
		app.notFoundErrorResponse(w, r)
		return
	}

	err := app.writeJSON(w, http.StatusOK, envelope{"url": url}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// serveFileHandler serves files kept by the in-memory file store. Other stores
// hand out their own URLs.
func (app *application) serveFileHandler(w http.ResponseWriter, r *http.Request) {
	if app.memFiles == nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	data, contentType, err := app.memFiles.Open(app.readParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, blogservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}
