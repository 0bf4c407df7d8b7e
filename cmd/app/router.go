package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	// the proxy answers every method itself
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		router.Handler(method, "/api/ai", app.aiProxy)
	}

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/me", app.currentUserHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/me/posts", app.requireAuthUser(app.listOwnPostsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/me/likes", app.requireAuthUser(app.listLikedPostsHandler))

	// blog service
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.requireAuthUser(app.createPostHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug", app.getPostHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/posts/:slug", app.requireAuthUser(app.updatePostHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:slug", app.requireAuthUser(app.deletePostHandler))
	router.HandlerFunc(http.MethodPost, "/v1/posts/:slug/like", app.requireAuthUser(app.toggleLikeHandler))

	router.HandlerFunc(http.MethodPost, "/v1/files", app.requireAuthUser(app.uploadFileHandler))
	router.HandlerFunc(http.MethodGet, "/v1/files/:id", app.serveFileHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/files/:id", app.requireAuthUser(app.deleteFileHandler))
	router.HandlerFunc(http.MethodGet, "/v1/files/:id/preview", app.previewFileHandler)

	router.HandlerFunc(http.MethodPost, "/v1/ai/generate", app.requireAuthUser(app.generateDraftHandler))
	router.HandlerFunc(http.MethodPost, "/v1/ai/topics", app.requireAuthUser(app.generateTopicsHandler))
	router.HandlerFunc(http.MethodPost, "/v1/ai/image", app.requireAuthUser(app.generateImageHandler))

	return app.recoverPanic(app.logRequest(app.enableCORS(app.rateLimit(app.authenticate(router)))))
}
