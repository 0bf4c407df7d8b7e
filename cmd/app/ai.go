package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sushihentaime/blogify/internal/common"
)

type generateDraftRequest struct {
	Topic  string `json:"topic"`
	Tone   string `json:"tone"`
	Length string `json:"length"`
}

func (app *application) generateDraftHandler(w http.ResponseWriter, r *http.Request) {
	var input generateDraftRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if strings.TrimSpace(input.Topic) == "" {
		app.failedValidationErrorResponse(w, r, map[string]string{"topic": "must be provided"})
		return
	}

	draft := app.blogService.GenerateDraft(r.Context(), input.Topic, input.Tone, input.Length)

	err = app.writeJSON(w, http.StatusOK, envelope{"draft": draft}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type generateTopicsRequest struct {
	Seed string `json:"seed"`
}

func (app *application) generateTopicsHandler(w http.ResponseWriter, r *http.Request) {
	var input generateTopicsRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	topics := app.blogService.GenerateTopicSuggestions(r.Context(), input.Seed)

	err = app.writeJSON(w, http.StatusOK, envelope{"topics": topics}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type generateImageRequest struct {
	Topic string `json:"topic"`
}

func (app *application) generateImageHandler(w http.ResponseWriter, r *http.Request) {
	var input generateImageRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	ref, err := app.blogService.GenerateFeaturedImage(r.Context(), app.currentProfile(r).ID, input.Topic)
	if err != nil {
		var validationErr common.ValidationError
		switch {
		case errors.As(err, &validationErr):
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.badGatewayErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"file": ref}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
