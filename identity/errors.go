package identity

import (
	"net/http"

	"github.com/dipalisurve2377/organization-events-sub001/failure"
)

const maxErrorBodyLen = 512

// ClassifyStatus maps a non 2xx status code of the identity provider into a failure kind.
// ok is false for 2xx codes.
func ClassifyStatus(code int) (kind failure.Kind, ok bool) {
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return "", false
	case code >= http.StatusBadRequest && code < http.StatusInternalServerError:
		return failure.ClientError, true
	default:
		// 5xx and anything unexpected, e.g. a redirect, are treated as a faulty server
		return failure.ServerError, true
	}
}

func statusError(code int, method, path string, body []byte) error {
	kind, ok := ClassifyStatus(code)
	if !ok {
		return nil
	}

	if len(body) > maxErrorBodyLen {
		body = body[:maxErrorBodyLen]
	}

	return failure.Newf(kind, "%s %s answered %d: %s", method, path, code, body).WithStatusCode(code)
}
