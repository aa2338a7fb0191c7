package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls a video identifier out of a search results page. The
// fetcher is agnostic to the markup; swapping this interface out is how
// tests avoid real YouTube responses.
type Extractor interface {
	Extract(body []byte) (string, error)
}

var (
	// ErrNoResults marks a well-formed results page with zero videos. It is
	// a definitive answer, not a proxy fault.
	ErrNoResults = errors.New("no videos found in results page")

	// ErrMalformedPage marks a page whose structure could not be parsed at
	// all, typically a CAPTCHA or block page served through a bad proxy.
	ErrMalformedPage = errors.New("results page structure not recognized")
)

const initialDataMarker = "var ytInitialData = "

var (
	videoRendererRE = regexp.MustCompile(`"videoRenderer":\{"videoId":"([^"]+)"`)
	watchHrefRE     = regexp.MustCompile(`/watch\?v=([^&"]+)`)
)

// YouTube extracts the first video ID from a YouTube search results page.
// Three methods are tried in order: a direct videoRenderer regex, a walk of
// the ytInitialData JSON blob, and finally an anchor scan of the rendered
// markup.
type YouTube struct{}

func NewYouTube() *YouTube {
	return &YouTube{}
}

func (y *YouTube) Extract(body []byte) (string, error) {
	if match := videoRendererRE.FindSubmatch(body); len(match) == 2 {
		return string(match[1]), nil
	}

	initialData, found := carveInitialData(body)
	if found {
		if id := firstVideoID(initialData); id != "" {
			return id, nil
		}
	}

	if id := firstWatchAnchor(body); id != "" {
		return id, nil
	}

	// A parseable ytInitialData blob without a single videoRenderer is a
	// clean zero-results page. Anything else means the page never rendered
	// search results at all.
	if found {
		return "", ErrNoResults
	}
	return "", ErrMalformedPage
}

// carveInitialData locates the ytInitialData assignment and carves out the
// complete JSON object by tracking brace depth, honoring string escapes.
func carveInitialData(body []byte) (json.RawMessage, bool) {
	idx := bytes.Index(body, []byte(initialDataMarker))
	if idx < 0 {
		return nil, false
	}

	blob := body[idx+len(initialDataMarker):]
	if len(blob) == 0 || blob[0] != '{' {
		return nil, false
	}

	depth := 0
	inString := false
	var prev byte
	for i := 0; i < len(blob); i++ {
		c := blob[i]
		if inString {
			if c == '"' && prev != '\\' {
				inString = false
			}
		} else {
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					carved := blob[:i+1]
					if !json.Valid(carved) {
						return nil, false
					}
					return json.RawMessage(carved), true
				}
			}
		}
		prev = c
	}
	return nil, false
}

// firstVideoID walks the ytInitialData tree depth-first and returns the
// first videoRenderer.videoId it encounters, or "" when none exists.
func firstVideoID(data json.RawMessage) string {
	var walk func(raw json.RawMessage) string
	walk = func(raw json.RawMessage) string {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			return ""
		}

		switch trimmed[0] {
		case '{':
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(trimmed, &obj); err != nil {
				return ""
			}
			if renderer, ok := obj["videoRenderer"]; ok {
				var vr struct {
					VideoID string `json:"videoId"`
				}
				if err := json.Unmarshal(renderer, &vr); err == nil && vr.VideoID != "" {
					return vr.VideoID
				}
			}
			for _, value := range obj {
				if id := walk(value); id != "" {
					return id
				}
			}
		case '[':
			var arr []json.RawMessage
			if err := json.Unmarshal(trimmed, &arr); err != nil {
				return ""
			}
			for _, value := range arr {
				if id := walk(value); id != "" {
					return id
				}
			}
		}
		return ""
	}
	return walk(data)
}

// firstWatchAnchor scans rendered markup for the first /watch?v= link.
func firstWatchAnchor(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var id string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if match := watchHrefRE.FindStringSubmatch(href); len(match) == 2 {
			id = match[1]
			return false
		}
		return true
	})
	return id
}
