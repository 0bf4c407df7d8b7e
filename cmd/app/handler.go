package main

import (
	"errors"
	"net/http"

	"github.com/sushihentaime/blogify/internal/blogservice"
	"github.com/sushihentaime/blogify/internal/common"
	"github.com/sushihentaime/blogify/internal/userservice"
)

type registerUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input registerUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	login, err := app.userService.Register(r.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.Is(err, userservice.ErrDuplicateEmail):
			app.conflictErrorResponse(w, r, "a user with this email address already exists")
		case errors.As(err, &validationErr):
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"login": login}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type loginUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input loginUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	login, err := app.userService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.Is(err, userservice.ErrInvalidCredentials):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.As(err, &validationErr):
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"login": login}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	store := app.getSessionContext(r)

	err := app.userService.Logout(r.Context(), store, app.getSecretContext(r))
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNoSession):
			app.authenticationRequiredResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"session": store.Snapshot()}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) currentUserHandler(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, envelope{"session": app.getSessionContext(r).Snapshot()}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listOwnPostsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := app.readLimitOffsetParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	profile := app.currentProfile(r)

	list, err := app.blogService.ListPosts(r.Context(), blogservice.ListFilter{UserID: profile.ID, Limit: limit, Offset: offset})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": list}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listLikedPostsHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.userService.LikedPosts(r.Context(), userservice.ClientKey(app.getSecretContext(r)))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"likes": ids}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
