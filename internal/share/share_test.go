package share

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagnostic-lead-service/internal/domain"
)

func TestLinksCarryScoreLevelAndOrigin(t *testing.T) {
	b := NewBuilder("https://example.com/resultats?utm_source=quiz", "")
	links := b.Links("daf-pme", 58, domain.Level{ID: "bases", Label: "Bases présentes"})

	u, err := url.Parse(links.Result)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "58", q.Get("score"))
	assert.Equal(t, "bases", q.Get("level"))
	assert.Equal(t, "daf-pme", q.Get("from"))
	assert.Equal(t, "quiz", q.Get("utm_source"))

	li, err := url.Parse(links.LinkedIn)
	require.NoError(t, err)
	assert.Equal(t, links.Result, li.Query().Get("url"))

	x, err := url.Parse(links.X)
	require.NoError(t, err)
	assert.Equal(t, links.Result, x.Query().Get("url"))
	assert.Contains(t, x.Query().Get("text"), "Bases présentes")

	assert.True(t, strings.HasPrefix(links.WhatsApp, "https://wa.me/?text="))
	assert.True(t, strings.HasPrefix(links.Email, "mailto:?subject="))
	assert.NotContains(t, links.Email, "+")
}

func TestLinksUseConfiguredOrigin(t *testing.T) {
	links := NewBuilder("https://example.com/r", "site-blog").Links("rse", 10, domain.Level{ID: "initiation"})
	u, err := url.Parse(links.Result)
	require.NoError(t, err)
	assert.Equal(t, "site-blog", u.Query().Get("from"))
}

func TestLinksDisabledWithoutBaseURL(t *testing.T) {
	assert.Equal(t, domain.ShareLinks{}, NewBuilder("", "").Links("rse", 10, domain.Level{ID: "initiation"}))

	var b *Builder
	assert.Equal(t, domain.ShareLinks{}, b.Links("rse", 10, domain.Level{ID: "initiation"}))
}
