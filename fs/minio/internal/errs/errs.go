// Package errs provides error handling utilities for the minio backend.
package errs

import (
	"net/http"

	"github.com/minio/minio-go/v7"

	"github.com/jmgilman/go/rio/errors"
)

// Translate converts MinIO errors to rio errors. The S3 error message becomes the
// error detail.
//
// NoSuchKey and NoSuchBucket map to CodeNotFound and AccessDenied to
// CodeForbidden. Throttling and 5xx responses map to CodeUnavailable; anything
// else is reported as a retryable CodeNetwork failure.
func Translate(err error, op, bucket, key string) error {
	if err == nil {
		return nil
	}

	// Check MinIO error responses
	errResp := minio.ToErrorResponse(err)

	var code errors.ErrorCode
	switch {
	case errResp.Code == "NoSuchKey", errResp.Code == "NoSuchBucket":
		code = errors.CodeNotFound
	case errResp.Code == "AccessDenied":
		code = errors.CodeForbidden
	case errResp.Code == "SlowDown", errResp.StatusCode == http.StatusServiceUnavailable:
		code = errors.CodeUnavailable
	default:
		code = errors.CodeNetwork
	}

	detail := errResp.Message
	if detail == "" {
		detail = err.Error()
	}

	return errors.WithDetail(
		errors.WrapWithContext(err, code, op+" failed", map[string]interface{}{
			"bucket": bucket,
			"key":    key,
		}),
		detail,
	)
}

// IsNotFound reports whether err was translated to CodeNotFound.
func IsNotFound(err error) bool {
	return errors.HasCode(err, errors.CodeNotFound)
}
