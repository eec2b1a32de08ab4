package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openrwa/rwa-ledger/internal/domain"
	"github.com/openrwa/rwa-ledger/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest       ErrorCode = "bad_request"
	errCodeNotFound         ErrorCode = "not_found"
	errCodeValidationFailed ErrorCode = "validation_failed"
	errCodeForbidden        ErrorCode = "forbidden"
	errCodeConflict         ErrorCode = "conflict"

	// Server errors (5xx)
	errCodeInternalError ErrorCode = "internal_error"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information. LedgerCode carries the stable
// numeric code of ledger rejections so clients can branch without parsing
// messages.
type errorDetail struct {
	Code       ErrorCode `json:"code"`
	LedgerCode uint32    `json:"ledger_code,omitempty"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

// respondInternalError sends a 500 Internal Server Error response and logs the error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.Error(err, fields...)
	respondWithError(c, http.StatusInternalServerError, errCodeInternalError, message)
}

// respondLedgerError maps a ledger rejection to an HTTP response. Anything
// that is not a domain error is treated as an internal failure.
func respondLedgerError(c *gin.Context, err error) {
	var ledgerErr *domain.Error
	if !errors.As(err, &ledgerErr) {
		respondInternalError(c, err, "Ledger call failed")
		return
	}

	status := http.StatusBadRequest
	code := errCodeValidationFailed

	switch ledgerErr.Code {
	case domain.CodeOwnerOnly, domain.CodeNotAuthorized, domain.CodeKycRequired:
		status = http.StatusForbidden
		code = errCodeForbidden
	case domain.CodeNotFound:
		status = http.StatusNotFound
		code = errCodeNotFound
	case domain.CodeAlreadyListed, domain.CodeVoteExists, domain.CodeVoteEnded,
		domain.CodeAlreadyExecuted, domain.CodePriceExpired:
		status = http.StatusConflict
		code = errCodeConflict
	}

	c.JSON(status, errorResponse{
		Error: errorDetail{
			Code:       code,
			LedgerCode: uint32(ledgerErr.Code),
			Message:    ledgerErr.Message,
		},
	})
}
