package controllers

import (
	"net/http"

	"github.com/getAlby/rgbhub.go/lib/responses"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// WalletController drives the wallet lifecycle of the node.
type WalletController struct {
	svc *service.RgbHubService
}

func NewWalletController(svc *service.RgbHubService) *WalletController {
	return &WalletController{svc: svc}
}

type WalletPasswordRequestBody struct {
	Password string `json:"password"`
}

type BackupRequestBody struct {
	Name         string `json:"name" validate:"required"`
	Password     string `json:"password" validate:"required"`
	AuthPassword string `json:"auth_password"`
}

type RestoreRequestBody struct {
	Mnemonic string `json:"mnemonic" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type BackupResponseBody struct {
	Path string `json:"path"`
}

type WalletStatusResponseBody struct {
	Result string `json:"result"`
}

// Init godoc
// @Summary      Initialize the wallet
// @Description  Creates the node wallet and returns its mnemonic. When the keyring cannot store the secrets the mnemonic is returned in the error data.
// @Accept       json
// @Produce      json
// @Tags         Wallet
// @Param        WalletPasswordRequestBody  body      WalletPasswordRequestBody  true  "Wallet password"
// @Success      200                        {object}  service.InitResult
// @Failure      400                        {object}  responses.ErrorResponse
// @Failure      503                        {object}  responses.ErrorResponse
// @Router       /v1/wallet/init [post]
func (controller *WalletController) Init(c echo.Context) error {
	var body WalletPasswordRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load init request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	result, err := controller.svc.InitWallet(c.Request().Context(), body.Password)
	if err != nil {
		if result == nil {
			return responses.Send(c, err)
		}
		// the wallet exists, the caller must still see the mnemonic
		resp := responses.FromError(err)
		resp.Data = result
		return c.JSON(resp.HttpStatusCode, resp)
	}
	return c.JSON(http.StatusOK, result)
}

// Unlock godoc
// @Summary      Unlock the wallet
// @Description  Unlocks the node. An empty password is read from the keyring when it is enabled.
// @Accept       json
// @Produce      json
// @Tags         Wallet
// @Param        WalletPasswordRequestBody  body      WalletPasswordRequestBody  false  "Wallet password"
// @Success      200                        {object}  WalletStatusResponseBody
// @Failure      400                        {object}  responses.ErrorResponse
// @Failure      503                        {object}  responses.ErrorResponse
// @Router       /v1/wallet/unlock [post]
func (controller *WalletController) Unlock(c echo.Context) error {
	var body WalletPasswordRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load unlock request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := controller.svc.UnlockWallet(c.Request().Context(), body.Password); err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, &WalletStatusResponseBody{Result: "unlocked"})
}

// Lock godoc
// @Summary      Lock the wallet
// @Produce      json
// @Tags         Wallet
// @Success      200  {object}  WalletStatusResponseBody
// @Failure      503  {object}  responses.ErrorResponse
// @Router       /v1/wallet/lock [post]
func (controller *WalletController) Lock(c echo.Context) error {
	if err := controller.svc.LockWallet(c.Request().Context()); err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, &WalletStatusResponseBody{Result: "locked"})
}

// Backup godoc
// @Summary      Back up the wallet
// @Description  Writes an encrypted backup named name into the backup directory
// @Accept       json
// @Produce      json
// @Tags         Wallet
// @Param        BackupRequestBody  body      BackupRequestBody  true  "Backup"
// @Success      200                {object}  BackupResponseBody
// @Failure      400                {object}  responses.ErrorResponse
// @Failure      403                {object}  responses.ErrorResponse
// @Router       /v1/wallet/backup [post]
func (controller *WalletController) Backup(c echo.Context) error {
	var body BackupRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load backup request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid backup request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	path, err := controller.svc.BackupWallet(c.Request().Context(), body.Name, body.Password, body.AuthPassword)
	if err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, &BackupResponseBody{Path: path})
}

// Restore godoc
// @Summary      Restore the wallet
// @Description  Restores the wallet from a mnemonic and a backup in the backup directory
// @Accept       json
// @Produce      json
// @Tags         Wallet
// @Param        RestoreRequestBody  body      RestoreRequestBody  true  "Restore"
// @Success      200                 {object}  WalletStatusResponseBody
// @Failure      400                 {object}  responses.ErrorResponse
// @Failure      503                 {object}  responses.ErrorResponse
// @Router       /v1/wallet/restore [post]
func (controller *WalletController) Restore(c echo.Context) error {
	var body RestoreRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load restore request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid restore request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := controller.svc.RestoreWallet(c.Request().Context(), body.Mnemonic, body.Password, body.Name); err != nil {
		return responses.Send(c, err)
	}
	return c.JSON(http.StatusOK, &WalletStatusResponseBody{Result: "restored"})
}
