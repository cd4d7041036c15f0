package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsFor(rawQuery string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		query    string
		expected Params
	}{
		{name: "Defaults", query: "", expected: Params{Page: 1, Limit: 10}},
		{name: "Explicit values", query: "page=3&limit=25", expected: Params{Page: 3, Limit: 25}},
		{name: "Limit clamped", query: "limit=5000", expected: Params{Page: 1, Limit: 100}},
		{name: "Garbage ignored", query: "page=abc&limit=-4", expected: Params{Page: 1, Limit: 10}},
		{name: "Zero page ignored", query: "page=0", expected: Params{Page: 1, Limit: 10}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, paramsFor(tc.query))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 40, Params{Page: 5, Limit: 10}.Offset())
}
