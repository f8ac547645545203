package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseParamsDefaults(t *testing.T) {
	p := ParseParams("", "")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 0, p.Offset())

	p = ParseParams("3", "abc")
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 14, p.Offset())

	p = ParseParams("-2", "1000")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)
}

func TestNewPage(t *testing.T) {
	page := NewPage(Params{Page: 2, Limit: 7}, 15, []string{"a"})
	assert.Equal(t, int64(15), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Len(t, page.Items, 1)

	empty := NewPage[int](Params{}, 0, nil)
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Items)
}
