package status

import (
	"encoding/json"
	"net/http"

	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/pkg/errors"
)

type errorBody struct {
	Error string `json:"error"`
}

type responseWriter struct {
	body   interface{}
	status int
}

func NewResponseWriterFromError(err error) *responseWriter {
	var respErr ResponseError
	if errors.As(err, &respErr) {
		return &responseWriter{
			body:   errorBody{Error: respErr.Error()},
			status: respErr.Status(),
		}
	}

	return &responseWriter{
		body:   errorBody{Error: err.Error()},
		status: http.StatusInternalServerError,
	}
}

func NewResponseWriter(body interface{}, status int) *responseWriter {
	return &responseWriter{
		body:   body,
		status: status,
	}
}

func NewResponseWriterFromErrMsg(errMsg string, status int) *responseWriter {
	return NewResponseWriterFromError(NewResponseError(status, errors.New(errMsg)))
}

func (rw *responseWriter) write(resp http.ResponseWriter, logger log.Logger) {
	respBody, err := json.Marshal(rw.body)
	if err != nil {
		logger.Log(log.ErrorLevel, err)
		resp.WriteHeader(http.StatusInternalServerError)
		return
	}

	resp.Header().Set("Content-Type", "application/json")

	resp.WriteHeader(rw.status)

	if _, err = resp.Write(respBody); err != nil {
		logger.Log(log.ErrorLevel, err)
	}
}

type ResponseError struct {
	error
	status int
}

//Status returns http status code
func (e ResponseError) Status() int {
	return e.status
}

func NewResponseError(status int, err error) ResponseError {
	return ResponseError{status: status, error: err}
}
