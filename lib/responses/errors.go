package responses

import (
	"errors"
	"net/http"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool             `json:"error"`
	Code           int              `json:"code"`
	Kind           common.ErrorKind `json:"kind,omitempty"`
	Key            string           `json:"key,omitempty"`
	Message        string           `json:"message"`
	Data           interface{}      `json:"data,omitempty"`
	HttpStatusCode int              `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Kind:           common.KindUnknown,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Kind:           common.KindValidation,
	Key:            common.KeyBadArguments,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var BadAuthError = ErrorResponse{
	Error:          true,
	Code:           1,
	Message:        "bad auth",
	HttpStatusCode: 401,
}

type kindResponse struct {
	code   int
	status int
}

var kindResponses = map[common.ErrorKind]kindResponse{
	common.KindInsufficientFunds:         {2, http.StatusBadRequest},
	common.KindInvalidInvoice:            {2, http.StatusBadRequest},
	common.KindInvalidNodeURI:            {2, http.StatusBadRequest},
	common.KindMsatOutOfBounds:           {2, http.StatusBadRequest},
	common.KindAssetAmountExceedsInbound: {2, http.StatusBadRequest},
	common.KindConfigInvalid:             {2, http.StatusBadRequest},
	common.KindNoUsableChannel:           {3, http.StatusConflict},
	common.KindFailTransferNotAllowed:    {3, http.StatusConflict},
	common.KindChannelBusy:               {3, http.StatusConflict},
	common.KindWalletLocked:              {3, http.StatusConflict},
	common.KindNotFound:                  {4, http.StatusNotFound},
	common.KindNativeAuthRejected:        {1, http.StatusForbidden},
	common.KindNodeUnavailable:           {7, http.StatusServiceUnavailable},
	common.KindProxyUnreachable:          {7, http.StatusServiceUnavailable},
	common.KindKeyringUnavailable:        {9, http.StatusServiceUnavailable},
	common.KindValidation:                {8, http.StatusBadRequest},
}

// FromError renders any error returned by the wallet core. Errors without a
// kind become UNKNOWN and keep their message.
func FromError(err error) ErrorResponse {
	coreErr := common.AsError(err)
	if coreErr == nil {
		return ErrorResponse{
			Error:          true,
			Code:           GeneralServerError.Code,
			Kind:           common.KindUnknown,
			Message:        err.Error(),
			HttpStatusCode: http.StatusInternalServerError,
		}
	}
	mapped, ok := kindResponses[coreErr.Kind]
	if !ok {
		mapped = kindResponse{GeneralServerError.Code, http.StatusInternalServerError}
	}
	return ErrorResponse{
		Error:          true,
		Code:           mapped.code,
		Kind:           coreErr.Kind,
		Key:            coreErr.Key,
		Message:        coreErr.Message(),
		HttpStatusCode: mapped.status,
	}
}

// Send writes err as a JSON error response.
func Send(c echo.Context, err error) error {
	resp := FromError(err)
	if resp.HttpStatusCode >= http.StatusInternalServerError && resp.Kind == common.KindUnknown {
		captureException(c, err)
	}
	return c.JSON(resp.HttpStatusCode, resp)
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if isErrAllowedForSentry(err) {
		captureException(c, err)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		c.JSON(he.Code, he.Message)
		return
	}
	if common.AsError(err) != nil {
		resp := FromError(err)
		c.JSON(resp.HttpStatusCode, resp)
		return
	}
	c.JSON(http.StatusInternalServerError, GeneralServerError)
}

func captureException(c echo.Context, err error) {
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("RequestID", c.Response().Header().Get(echo.HeaderXRequestID))
			hub.CaptureException(err)
		})
	}
}

// bad auth attempts and domain errors are expected and not reported
func isErrAllowedForSentry(err error) bool {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(echo.Map); ok {
			if code, ok := m["code"].(int); ok && code == BadAuthError.Code {
				return false
			}
		}
		return true
	}
	if coreErr := common.AsError(err); coreErr != nil {
		return coreErr.Kind == common.KindUnknown
	}
	return true
}
