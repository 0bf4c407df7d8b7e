package blogservice

import (
	"github.com/sushihentaime/blogify/internal/common"
	"github.com/sushihentaime/blogify/internal/content"
)

const (
	maxFileIDLength = 36
	maxQueryLength  = 100
)

var permittedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 255), "title", "must not be more than 255 characters long")
}

func validateSlug(v *common.Validator, slug string) {
	v.Check(slug != "", "slug", "must be provided")
	v.Check(len(slug) <= content.MaxSlugLength, "slug", "must not be more than 36 characters long")
	v.Check(v.Matches(slug, content.SlugRX), "slug", "must only contain lowercase letters, numbers, and dashes")
}

func validateContent(v *common.Validator, html string) {
	v.Check(html != "", "content", "must be provided")
	v.Check(content.HasVisibleText(html), "content", "must contain visible text")
}

func validateStatus(v *common.Validator, status string) {
	v.Check(v.PermittedValue(status, StatusActive, StatusInactive), "status", "must be active or inactive")
}

func validateFeaturedImage(v *common.Validator, id string) {
	v.Check(len(id) <= maxFileIDLength, "featured_image", "must not be more than 36 characters long")
}

func validateQuery(v *common.Validator, q string) {
	v.Check(v.CheckStringLength(q, 0, maxQueryLength), "q", "must not be more than 100 characters long")
}

func validateID(v *common.Validator, id, name string) {
	v.Check(id != "", name, "must be provided")
}

func validateImage(v *common.Validator, contentType string, size int) {
	v.Check(size > 0, "file", "must not be empty")
	v.Check(size <= maxUploadBytes, "file", "must not be larger than 10MB")
	v.Check(v.PermittedValue(contentType, permittedImageTypes...), "file", "must be a png, jpeg, gif or webp image")
}
