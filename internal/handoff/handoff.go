// Package handoff parses and builds the custom-scheme URLs that hand an
// annotation session from the web app to the desktop app:
//
//	oceanml://annotate?video=<video id>&token=<jwt>
package handoff

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

const DefaultScheme = "oceanml"

const ActionAnnotate = "annotate"

var (
	ErrInvalidURL      = errors.New("invalid handoff url")
	ErrInvalidProtocol = errors.New("invalid handoff protocol")
)

// Request is a decoded handoff URL. VideoID and Token are nil when the
// parameter is absent or blank.
type Request struct {
	Action  string  `json:"action"`
	VideoID *string `json:"video_id"`
	Token   *string `json:"-"`
}

// Parse decodes rawURL. The scheme must equal expectedScheme exactly,
// including case; url.Parse lowercases u.Scheme, so the raw prefix is compared.
func Parse(rawURL, expectedScheme string) (*Request, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	scheme := ""
	if u.Scheme != "" {
		scheme, _, _ = strings.Cut(rawURL, ":")
	}
	if scheme != expectedScheme {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrInvalidProtocol, expectedScheme+"://", scheme+"://")
	}

	action := u.Host
	if action == "" {
		action = firstSegment(u)
	}

	q := u.Query()
	return &Request{
		Action:  action,
		VideoID: firstValue(q, "video"),
		Token:   firstValue(q, "token"),
	}, nil
}

func firstSegment(u *url.URL) string {
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}

func firstValue(q url.Values, key string) *string {
	vals := q[key]
	if len(vals) == 0 || vals[0] == "" {
		return nil
	}
	v := vals[0]
	return &v
}

// Validate reports whether req carries everything the desktop app needs.
// Each failure is logged at warn level. The token check is structural only;
// the API verifies the signature.
func Validate(req *Request, log *logger.Logger) bool {
	if log == nil {
		log = logger.Nop()
	}
	switch {
	case req == nil:
		log.Warn("handoff rejected", "reason", "missing request")
		return false
	case req.Action == "":
		log.Warn("handoff rejected", "reason", "missing action")
		return false
	case req.VideoID == nil || *req.VideoID == "":
		log.Warn("handoff rejected", "reason", "missing video_id", "action", req.Action)
		return false
	case req.Token == nil || *req.Token == "":
		log.Warn("handoff rejected", "reason", "missing token", "action", req.Action, "video_id", *req.VideoID)
		return false
	case !LooksLikeJWT(*req.Token):
		log.Warn("handoff rejected", "reason", "invalid token format", "action", req.Action, "video_id", *req.VideoID)
		return false
	}
	return true
}

// LooksLikeJWT reports whether token has three non-empty dot-separated
// segments.
func LooksLikeJWT(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// Build composes a handoff URL. Parse(Build(s, a, v, t), s) returns a, v, t.
func Build(scheme, action, videoID, token string) string {
	q := url.Values{}
	q.Set("video", videoID)
	q.Set("token", token)
	u := url.URL{
		Scheme:   scheme,
		Host:     action,
		RawQuery: q.Encode(),
	}
	return u.String()
}
