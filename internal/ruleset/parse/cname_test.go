package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCName(t *testing.T) {
	c, ok := ParseCName("www.bing.com    CNAME   strict.bing.com.")
	assert.True(t, ok)
	assert.Equal(t, Domain("www.bing.com"), c.Domain)
	assert.Equal(t, Domain("strict.bing.com"), c.Alias)
}

func TestParseCNameLowercaseKeyword(t *testing.T) {
	c, ok := ParseCName("www.google.com.my    cname   forcesafesearch.google.com.")
	assert.True(t, ok)
	assert.Equal(t, Domain("www.google.com.my"), c.Domain)
	assert.Equal(t, Domain("forcesafesearch.google.com"), c.Alias)
}

func TestParseCNameRejectsMissingTrailingDot(t *testing.T) {
	_, ok := ParseCName("www.bing.com CNAME strict.bing.com")
	assert.False(t, ok)
}
