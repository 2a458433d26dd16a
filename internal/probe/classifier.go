package probe

import (
	"bytes"
	"net/http"
	"strings"
)

// verdict is the classified reading of one response: either a terminal
// outcome or a transient signal to cool down and retry.
type verdict struct {
	outcome   Outcome
	transient Signal
}

func (v verdict) isTransient() bool {
	return v.transient != ""
}

// classifier maps raw responses to verdicts. The body heuristics live here
// and nowhere else, so a site-side wording change is a one-line fix.
type classifier struct {
	invalidMarker []byte
}

func newClassifier(marker string) classifier {
	return classifier{invalidMarker: bytes.ToLower([]byte(strings.TrimSpace(marker)))}
}

// classify reads one fetched page.
//
// 429 asks for patience and 403 means the remote is actively unhappy; both
// are transient. A redirect is a terminal no: the site redirects
// nonexistent or ambiguous slugs to a fallback page. A 200 whose body
// carries the invalid-product marker is a soft 404. Everything else that is
// not a clean 200 counts as not found.
func (c classifier) classify(page Page) verdict {
	switch {
	case page.StatusCode == http.StatusTooManyRequests:
		return verdict{transient: SignalRateLimited}
	case page.StatusCode == http.StatusForbidden:
		return verdict{transient: SignalBlocked}
	case page.StatusCode >= 300 && page.StatusCode < 400:
		return verdict{outcome: NotFound}
	case page.FinalURL != "" && page.FinalURL != page.URL:
		return verdict{outcome: NotFound}
	case page.StatusCode == http.StatusOK:
		if c.markedInvalid(page.Body) {
			return verdict{outcome: NotFound}
		}
		return verdict{outcome: Exists}
	default:
		return verdict{outcome: NotFound}
	}
}

func (c classifier) markedInvalid(body []byte) bool {
	if len(c.invalidMarker) == 0 || len(body) == 0 {
		return false
	}
	return bytes.Contains(bytes.ToLower(body), c.invalidMarker)
}
