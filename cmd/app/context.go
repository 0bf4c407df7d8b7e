package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/blogify/internal/userservice"
)

type contextKey string

const (
	sessionContextKey = contextKey("session")
	secretContextKey  = contextKey("secret")
)

func (app *application) createSessionContext(r *http.Request, store *userservice.Store, secret string) *http.Request {
	ctx := context.WithValue(r.Context(), sessionContextKey, store)
	ctx = context.WithValue(ctx, secretContextKey, secret)
	return r.WithContext(ctx)
}

// getSessionContext never returns nil. Requests that skipped authenticate get an anonymous store.
func (app *application) getSessionContext(r *http.Request) *userservice.Store {
	store, ok := r.Context().Value(sessionContextKey).(*userservice.Store)
	if !ok {
		return userservice.NewStore()
	}
	return store
}

func (app *application) getSecretContext(r *http.Request) string {
	secret, _ := r.Context().Value(secretContextKey).(string)
	return secret
}

// currentProfile returns the signed in profile or nil.
func (app *application) currentProfile(r *http.Request) *userservice.Profile {
	return app.getSessionContext(r).Snapshot().Profile
}
