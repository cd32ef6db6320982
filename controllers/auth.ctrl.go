package controllers

import (
	"net/http"

	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// AuthController : AuthController struct
type AuthController struct {
	svc *service.RgbHubService
}

func NewAuthController(svc *service.RgbHubService) *AuthController {
	return &AuthController{
		svc: svc,
	}
}

type AuthRequestBody struct {
	Password string `json:"password"`
}

type AuthResponseBody struct {
	AccessToken string `json:"access_token"`
}

// Auth godoc
// @Summary      Start an app session
// @Description  Exchanges the native authentication password for an access token. The password is only checked when app login requires it.
// @Accept       json
// @Produce      json
// @Tags         Auth
// @Param        AuthRequestBody  body      AuthRequestBody  false  "Password"
// @Success      200              {object}  AuthResponseBody
// @Failure      400              {object}  responses.ErrorResponse
// @Failure      403              {object}  responses.ErrorResponse
// @Router       /v1/auth [post]
func (controller *AuthController) Auth(c echo.Context) error {
	var body AuthRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load auth request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if body.Password == "" {
		// swagger posts form data
		params, err := c.FormParams()
		if err == nil {
			body.Password = params.Get("password")
		}
	}

	accessToken, err := controller.svc.Login(body.Password)
	if err != nil {
		return responses.Send(c, err)
	}

	return c.JSON(http.StatusOK, &AuthResponseBody{
		AccessToken: accessToken,
	})
}
