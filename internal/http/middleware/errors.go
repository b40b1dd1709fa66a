package middleware

import "errors"

var (
	errMissingToken = errors.New("missing or invalid token")
	errHandoffToken = errors.New("handoff tokens only authorize the desktop lease claim")
)
