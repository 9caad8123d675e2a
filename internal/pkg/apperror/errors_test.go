package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_MapsCodeToStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeNotFound:        http.StatusNotFound,
		ErrCodeConflict:        http.StatusConflict,
		ErrCodeValidation:      http.StatusBadRequest,
		ErrCodeForbidden:       http.StatusForbidden,
		ErrCodeUnauthorized:    http.StatusUnauthorized,
		ErrCodeUpstreamFailure: http.StatusBadGateway,
		ErrCodeDatabaseError:   http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, string(code))
	}
}

func TestIs_MatchesPredefinedThroughWrapping(t *testing.T) {
	err := fmt.Errorf("accept: %w", ErrAlreadyAccepted)

	assert.True(t, errors.Is(err, ErrAlreadyAccepted))
	assert.True(t, IsConflict(err))
	assert.False(t, errors.Is(err, ErrQuotationNotSent))
}

func TestCodeOf_UnknownError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("boom")))
	assert.True(t, IsNotFound(Wrap(errors.New("no rows"), ErrCodeNotFound, "нет")))
}
