package errors

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeUnsupported, "resource not opened for writing")

	require.NotNil(t, err)
	assert.Equal(t, CodeUnsupported, err.Code())
	assert.Equal(t, ClassificationPermanent, err.Classification())
	assert.Equal(t, "resource not opened for writing", err.Message())
	assert.Empty(t, err.Detail())
	assert.Nil(t, err.Context())
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "[UNSUPPORTED] resource not opened for writing", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(CodeInvalidArgument, "count %d exceeds buffer length %d", 5, 3)
	assert.Equal(t, "count 5 exceeds buffer length 3", err.Message())
}

func TestError_Format(t *testing.T) {
	cause := stderrors.New("sync failed")
	err := WithDetail(Wrap(cause, CodeBackendFailure, "write failed"), "no space left on device")

	assert.Equal(t, "[BACKEND_FAILURE] write failed (no space left on device): sync failed", err.Error())
}

func TestError_FormatDetailRepeatsMessage(t *testing.T) {
	err := WithDetail(New(CodeInvalidArgument, "seek lands before start"), "seek lands before start")

	assert.Equal(t, "[INVALID_ARGUMENT] seek lands before start", err.Error())
	assert.Equal(t, "seek lands before start", GetDetail(err))
}

func TestWrap(t *testing.T) {
	cause := fs.ErrPermission
	err := Wrap(cause, CodeBackendFailure, "open failed")

	require.NotNil(t, err)
	assert.Equal(t, CodeBackendFailure, err.Code())
	assert.True(t, stderrors.Is(err, fs.ErrPermission))
	assert.Equal(t, cause, err.Unwrap())
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeBackendFailure, "test"))
	assert.Nil(t, Wrapf(nil, CodeBackendFailure, "test %d", 1))
	assert.Nil(t, WrapWithContext(nil, CodeBackendFailure, "test", nil))
}

func TestWrap_PreservesClassificationAndDetail(t *testing.T) {
	original := WithDetail(New(CodeNetwork, "put object"), "connection reset")
	require.True(t, original.Classification().IsRetryable())

	wrapped := Wrap(original, CodeBackendFailure, "sync failed")

	assert.True(t, wrapped.Classification().IsRetryable())
	assert.Equal(t, "connection reset", wrapped.Detail())
	assert.Equal(t, CodeBackendFailure, wrapped.Code())
}

func TestWrapWithContext_CopiesMap(t *testing.T) {
	ctx := map[string]interface{}{"uri": "mem://a"}
	err := WrapWithContext(stderrors.New("boom"), CodeBackendFailure, "open failed", ctx)

	ctx["uri"] = "mutated"
	assert.Equal(t, "mem://a", err.Context()["uri"])

	got := err.Context()
	got["uri"] = "mutated again"
	assert.Equal(t, "mem://a", err.Context()["uri"])
}

func TestWithContext(t *testing.T) {
	err := New(CodeNoResource, "bad resource handle")
	withCtx := WithContext(WithContext(err, "id", uint64(7)), "op", "read")

	assert.Equal(t, uint64(7), withCtx.Context()["id"])
	assert.Equal(t, "read", withCtx.Context()["op"])
	assert.Nil(t, err.Context(), "original must not be mutated")
	assert.Nil(t, WithContext(nil, "k", "v"))
}

func TestWithContext_StandardError(t *testing.T) {
	std := stderrors.New("plain")
	err := WithContext(std, "k", "v")

	assert.Equal(t, CodeUnknown, err.Code())
	assert.Equal(t, std, err.Unwrap())
}

func TestWithContextMap(t *testing.T) {
	err := WithContext(New(CodeBackendFailure, "x"), "a", 1)
	merged := WithContextMap(err, map[string]interface{}{"a": 2, "b": 3})

	assert.Equal(t, 2, merged.Context()["a"])
	assert.Equal(t, 3, merged.Context()["b"])
}

func TestWithDetail(t *testing.T) {
	err := New(CodeBackendFailure, "read failed")

	assert.Equal(t, "input/output error", WithDetail(err, "input/output error").Detail())
	assert.Empty(t, WithDetail(err, "").Detail())
	assert.Nil(t, WithDetail(nil, "x"))
}

func TestWithClassification(t *testing.T) {
	err := WithClassification(New(CodeBackendFailure, "x"), ClassificationRetryable)
	assert.True(t, IsRetryable(err))
	assert.Nil(t, WithClassification(nil, ClassificationRetryable))
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeUnknown},
		{"standard", stderrors.New("x"), CodeUnknown},
		{"platform", New(CodeOutOfMemory, "x"), CodeOutOfMemory},
		{"outermost wins", Wrap(New(CodeNotFound, "x"), CodeBackendFailure, "y"), CodeBackendFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(New(CodeNoResource, "x"), CodeNoResource))
	assert.False(t, HasCode(nil, CodeUnknown))
	assert.False(t, HasCode(New(CodeNoResource, "x"), CodeUnsupported))
}

func TestClassificationDefaults(t *testing.T) {
	retryable := []ErrorCode{CodeNetwork, CodeTimeout, CodeUnavailable}
	for _, code := range retryable {
		assert.True(t, New(code, "x").Classification().IsRetryable(), code)
	}

	permanent := []ErrorCode{
		CodeInvalidArgument, CodeNoResource, CodeUnsupported,
		CodeBackendFailure, CodeOutOfMemory, ErrorCode("SOMETHING_NEW"),
	}
	for _, code := range permanent {
		assert.False(t, New(code, "x").Classification().IsRetryable(), code)
	}

	assert.Equal(t, ClassificationPermanent, GetClassification(nil))
	assert.Equal(t, ClassificationPermanent, GetClassification(stderrors.New("x")))
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(nil))
	assert.Equal(t, "plain", Describe(stderrors.New("plain")))
	assert.Equal(t, "bad resource handle", Describe(New(CodeNoResource, "bad resource handle")))
	assert.Equal(t, "broken pipe", Describe(WithDetail(New(CodeBackendFailure, "write failed"), "broken pipe")))
	assert.Equal(t, "operation not supported", Describe(New(CodeUnsupported, "")))
}

func TestErrorCode_Describe(t *testing.T) {
	assert.Equal(t, "bad resource handle", CodeNoResource.Describe())
	assert.Equal(t, "unknown error", ErrorCode("NOPE").Describe())
}

func TestToJSON(t *testing.T) {
	assert.Nil(t, ToJSON(nil))

	err := WithContext(WithDetail(New(CodeBackendFailure, "write failed"), "disk full"), "uri", "file:///x")
	resp := ToJSON(err)
	require.NotNil(t, resp)
	assert.Equal(t, "BACKEND_FAILURE", resp.Code)
	assert.Equal(t, "write failed", resp.Message)
	assert.Equal(t, "disk full", resp.Detail)
	assert.Equal(t, "PERMANENT", resp.Classification)
	assert.Equal(t, "file:///x", resp.Context["uri"])

	std := ToJSON(stderrors.New("plain"))
	assert.Equal(t, "UNKNOWN", std.Code)
	assert.Equal(t, "plain", std.Message)
}

func TestMarshalJSON(t *testing.T) {
	err := WithDetail(New(CodeNetwork, "get object"), "timeout")

	data, mErr := json.Marshal(err)
	require.NoError(t, mErr)
	assert.JSONEq(t,
		`{"code":"NETWORK_ERROR","message":"get object","detail":"timeout","classification":"RETRYABLE"}`,
		string(data))
}
