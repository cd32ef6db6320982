package responses

import (
	"errors"
	"net/http"
	"testing"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestBadAuthErrorsNotAllowedForSentry(t *testing.T) {
	badAuthErrResponse := echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"error":   true,
		"code":    1,
		"message": "bad auth",
	})

	isAllowed := isErrAllowedForSentry(badAuthErrResponse)
	assert.False(t, isAllowed)
}

func TestNotBadAuthErrorsAllowedForSentry(t *testing.T) {
	notBadAuthErrResponse := echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"error":   true,
		"code":    2,
		"message": "not bad auth",
	})

	isAllowed := isErrAllowedForSentry(notBadAuthErrResponse)
	assert.True(t, isAllowed)
}

func TestNonErrorResponseErrorsAllowedForSentry(t *testing.T) {
	err := errors.New("random error")

	isAllowed := isErrAllowedForSentry(err)
	assert.True(t, isAllowed)
}

func TestDomainErrorsNotAllowedForSentry(t *testing.T) {
	err := common.NewError(common.KindInsufficientFunds, common.KeyInsufficientFunds)
	assert.False(t, isErrAllowedForSentry(err))
	assert.True(t, isErrAllowedForSentry(common.WrapError(common.KindUnknown, "", errors.New("boom"))))
}

func TestFromError(t *testing.T) {
	resp := FromError(common.NewError(common.KindInsufficientFunds, common.KeyInsufficientFunds))
	assert.Equal(t, http.StatusBadRequest, resp.HttpStatusCode)
	assert.Equal(t, "You have insufficient funds", resp.Message)
	assert.Equal(t, common.KindInsufficientFunds, resp.Kind)

	resp = FromError(common.NewError(common.KindMsatOutOfBounds, common.KeyMsatLowerBoundLimit, 3000))
	assert.Equal(t, "Amount must be at least 3000 sats", resp.Message)

	resp = FromError(common.NewError(common.KindNodeUnavailable, common.KeyRequestTimeout))
	assert.Equal(t, http.StatusServiceUnavailable, resp.HttpStatusCode)

	resp = FromError(common.NewError(common.KindFailTransferNotAllowed, common.KeyFailTransferNotAllowed))
	assert.Equal(t, http.StatusConflict, resp.HttpStatusCode)

	resp = FromError(errors.New("node said no"))
	assert.Equal(t, common.KindUnknown, resp.Kind)
	assert.Equal(t, "node said no", resp.Message)
	assert.Equal(t, http.StatusInternalServerError, resp.HttpStatusCode)
}
