// Package share builds the outbound links that carry a result's score and level.
package share

import (
	"net/url"
	"strconv"
	"strings"

	"diagnostic-lead-service/internal/domain"
)

// Builder produces share links rooted at a public results page.
type Builder struct {
	baseURL string
	from    string
}

// NewBuilder returns a Builder for baseURL. from tags the origin of shared links.
func NewBuilder(baseURL, from string) *Builder {
	return &Builder{baseURL: baseURL, from: from}
}

// Links returns the result URL and the messaging links wrapping it.
func (b *Builder) Links(quizID string, percentage int, level domain.Level) domain.ShareLinks {
	if b == nil || b.baseURL == "" {
		return domain.ShareLinks{}
	}

	from := b.from
	if from == "" {
		from = quizID
	}

	result := withQuery(b.baseURL, url.Values{
		"score": {strconv.Itoa(percentage)},
		"level": {level.ID},
		"from":  {from},
	})
	text := "Mon résultat : " + level.Label + " (" + strconv.Itoa(percentage) + "%)"

	return domain.ShareLinks{
		Result:   result,
		WhatsApp: withQuery("https://wa.me/", url.Values{"text": {text + " " + result}}),
		LinkedIn: withQuery("https://www.linkedin.com/sharing/share-offsite/", url.Values{"url": {result}}),
		X:        withQuery("https://twitter.com/intent/tweet", url.Values{"text": {text}, "url": {result}}),
		Email:    "mailto:?" + encodeMailto(url.Values{"subject": {text}, "body": {result}}),
	}
}

func withQuery(raw string, values url.Values) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for k, vs := range values {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// mailto bodies must use %20 rather than '+' for spaces.
func encodeMailto(values url.Values) string {
	out := ""
	for _, k := range []string{"subject", "body"} {
		v := values.Get(k)
		if v == "" {
			continue
		}
		if out != "" {
			out += "&"
		}
		out += k + "=" + strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
	}
	return out
}
