package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseDoc = `
paths:
  /posts:
    get:
      parameters:
        - name: page
          in: query
      responses:
        "200": {}
  /posts/{id}:
    get:
      parameters:
        - name: id
          in: path
          required: true
      responses:
        "200": {}
        "404": {}
    x-internal: true
`

func TestParseSurface(t *testing.T) {
	s, err := parseSurface([]byte(baseDoc))
	require.NoError(t, err)

	require.Len(t, s, 2, "extension keys are not operations")
	assert.True(t, s["GET /posts/{id}"].required["path:id"])
	assert.True(t, s["GET /posts/{id}"].responses["404"])

	_, err = parseSurface([]byte("info: {}"))
	assert.Error(t, err)
}

func TestBreakingChanges(t *testing.T) {
	base, err := parseSurface([]byte(baseDoc))
	require.NoError(t, err)

	revision, err := parseSurface([]byte(`
paths:
  /posts:
    get:
      parameters:
        - name: page
          in: query
          required: true
      responses:
        "200": {}
  /posts/{id}:
    get:
      responses:
        "200": {}
  /categories:
    get:
      responses:
        "200": {}
`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"new required parameter: GET /posts -> query:page",
		"removed response code: GET /posts/{id} -> 404",
	}, breakingChanges(base, revision))

	assert.Equal(t, []string{
		"new required parameter: GET /posts/{id} -> path:id",
		"removed operation: GET /categories",
	}, breakingChanges(revision, base))
	assert.Empty(t, breakingChanges(base, base))
}

func TestGeneratedDocIsCompatibleWithItsExport(t *testing.T) {
	raw, err := exportYAML()
	require.NoError(t, err)

	exported, err := parseSurface(raw)
	require.NoError(t, err)
	assert.Contains(t, exported, "POST /auth/register")
	assert.Contains(t, exported, "DELETE /comments/{commentId}")
	assert.Empty(t, breakingChanges(exported, exported))
}
