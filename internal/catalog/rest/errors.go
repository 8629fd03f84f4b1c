package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/koustreak/IceFlow/internal/errs"
)

// errorResponse is the error envelope the catalog server answers with.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// mapTransportError translates a client-side transport failure.
func mapTransportError(err error, msg string) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// mapStatusError translates a non-2xx response into a *errs.Error,
// pulling the server's message out of the error envelope when present.
func mapStatusError(resp *http.Response, msg string) *errs.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	detail := fmt.Sprintf("http %d", resp.StatusCode)
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		detail = fmt.Sprintf("http %d: %s", resp.StatusCode, envelope.Error.Message)
	}

	kind := errs.ErrKindWriteFailed
	switch resp.StatusCode {
	case http.StatusNotFound:
		kind = errs.ErrKindNotFound
	case http.StatusConflict:
		kind = errs.ErrKindAlreadyExists
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = errs.ErrKindPermissionDenied
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = errs.ErrKindInvalidInput
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		kind = errs.ErrKindConnectionFailed
	}

	return errs.Wrap(kind, msg, errors.New(detail))
}
