package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/easyauth/pkg/binder"
	"github.com/dmitrymomot/easyauth/pkg/validator"
)

// JSONResponse is the standard JSON envelope.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

// ParamsWrong is rendered for payloads that fail to bind or validate.
var ParamsWrong = HTTPError{Status: http.StatusBadRequest, Code: "ParamsWrong", Message: "request parameters are invalid"}

type jsonResponse struct {
	status  int
	headers map[string]string
	body    any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for k, v := range j.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		if env, ok := r.body.(JSONResponse); ok {
			env.Meta = meta
			r.body = env
		}
	}
}

func WithHeader(key, value string) JSONOption {
	return func(r *jsonResponse) {
		if r.headers == nil {
			r.headers = make(map[string]string)
		}
		r.headers[key] = value
	}
}

// JSON wraps v in the {"data": v} envelope with status 200.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RawJSON writes v as-is, without the envelope.
func RawJSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err as {"error": {...}}. HTTPError values keep their
// status and code, bind and validation failures become ParamsWrong, and
// anything else is reported as an internal error without its message.
func JSONError(err error, opts ...JSONOption) Response {
	status, detail := errorToDetail(err)
	r := &jsonResponse{status: status, body: JSONResponse{Error: detail}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error) (int, *ErrorDetail) {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		return ParamsWrong.Status, &ErrorDetail{
			Code:    ParamsWrong.Code,
			Message: ParamsWrong.Message,
			Details: ve.Fields(),
		}
	}
	if binder.IsBindError(err) {
		return ParamsWrong.Status, &ErrorDetail{Code: ParamsWrong.Code, Message: ParamsWrong.Message}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		msg := httpErr.Message
		if msg == "" {
			msg = http.StatusText(httpErr.Status)
		}
		return httpErr.Status, &ErrorDetail{Code: httpErr.Code, Message: msg}
	}

	return ErrInternal.Status, &ErrorDetail{Code: ErrInternal.Code, Message: ErrInternal.Message}
}
