package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDoc(t *testing.T) {
	doc, err := ReadDoc("routing")
	require.NoError(t, err)
	assert.Equal(t, "Routing", doc.Title)
	require.Len(t, doc.Paragraphs, 2)
	assert.Contains(t, doc.Paragraphs[0], "index.go is the index route")
}

func TestReadDoc_NotFound(t *testing.T) {
	for _, slug := range []string{"", "missing", "../content", "docs/routing"} {
		_, err := ReadDoc(slug)
		assert.ErrorIs(t, err, ErrNotFound, slug)
	}
}

func TestSlugs(t *testing.T) {
	assert.Equal(t, []string{"deployment", "getting-started", "routing"}, Slugs())
}
