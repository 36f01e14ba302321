package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lessonhub/settlement-service/internal/dto"
	"github.com/lessonhub/settlement-service/internal/service"
)

type WalletHandler struct {
	svc service.WalletService
}

func NewWalletHandler(svc service.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

func (h *WalletHandler) RegisterRoutes(e *echo.Echo) {
	wallets := e.Group("/api/v1/wallets")
	wallets.GET("/:user_id/:currency", h.GetWallet)
	wallets.GET("/:user_id/:currency/transactions", h.ListTransactions)
	wallets.POST("/deposit", h.Deposit)
	wallets.POST("/credit", h.CreditSale)
	wallets.POST("/transfer", h.Transfer)
}

func walletError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWalletNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *WalletHandler) GetWallet(c echo.Context) error {
	wallet, err := h.svc.GetOrCreateWallet(c.Request().Context(), c.Param("user_id"), c.Param("currency"))
	if err != nil {
		return walletError(err)
	}
	return c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

func (h *WalletHandler) Deposit(c echo.Context) error {
	var req dto.DepositRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	wallet, err := h.svc.Deposit(c.Request().Context(), req.UserID, req.Amount, req.Currency, req.Reference, req.Description)
	if err != nil {
		return walletError(err)
	}
	return c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

func (h *WalletHandler) CreditSale(c echo.Context) error {
	var req dto.DepositRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	wallet, err := h.svc.CreditSale(c.Request().Context(), req.UserID, req.Amount, req.Currency, req.Reference, req.Description)
	if err != nil {
		return walletError(err)
	}
	return c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

func (h *WalletHandler) Transfer(c echo.Context) error {
	var req dto.TransferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.Transfer(c.Request().Context(), req.FromUserID, req.ToUserID, req.Amount, req.Currency, req.Reference, req.Description)
	if err != nil {
		return walletError(err)
	}
	return c.JSON(http.StatusOK, dto.TransferResponse{
		TransferID: result.TransferID,
		From:       dto.ToWalletResponse(result.From),
		To:         dto.ToWalletResponse(result.To),
	})
}

func (h *WalletHandler) ListTransactions(c echo.Context) error {
	page, pageSize := 1, 20
	if p := c.QueryParam("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.QueryParam("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	txns, total, err := h.svc.GetTransactions(c.Request().Context(), c.Param("user_id"), c.Param("currency"), page, pageSize)
	if err != nil {
		return walletError(err)
	}
	return c.JSON(http.StatusOK, dto.TransactionListResponse{
		Transactions: txns,
		Page:         page,
		PageSize:     pageSize,
		Total:        total,
	})
}
