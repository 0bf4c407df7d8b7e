package mailservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWelcomeTemplate(t *testing.T) {
	tp := NewTemplate()

	subject, plain, html, err := tp.ParseTemplate(welcomeTemplate, welcomeData{Name: "Ada", SiteURL: "https://blogify.test"})
	require.NoError(t, err)

	assert.Equal(t, "Welcome to Blogify, Ada!", subject.String())
	assert.Contains(t, plain.String(), "Hi Ada,")
	assert.Contains(t, plain.String(), "https://blogify.test/add-post")
	assert.Contains(t, html.String(), `<a href="https://blogify.test/add-post">`)
}

func TestParseTemplateEscapesName(t *testing.T) {
	tp := NewTemplate()

	_, _, html, err := tp.ParseTemplate(welcomeTemplate, welcomeData{Name: "<b>Eve</b>", SiteURL: "https://blogify.test"})
	require.NoError(t, err)

	assert.NotContains(t, html.String(), "<b>Eve</b>")
	assert.Contains(t, html.String(), "&lt;b&gt;Eve&lt;/b&gt;")
}

func TestParseTemplateUnknown(t *testing.T) {
	tp := NewTemplate()

	_, _, _, err := tp.ParseTemplate("invalid_template.html", nil)
	assert.Error(t, err)
}
