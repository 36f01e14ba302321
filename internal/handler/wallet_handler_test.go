package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lessonhub/settlement-service/internal/dto"
	"github.com/lessonhub/settlement-service/internal/models"
	"github.com/lessonhub/settlement-service/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// --- Mock WalletService ---

type mockWalletService struct {
	getOrCreateFn func(ctx context.Context, userID, currency string) (*models.Wallet, error)
	depositFn     func(ctx context.Context, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error)
	creditFn      func(ctx context.Context, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error)
	transferFn    func(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal, currency, reference, description string) (*service.TransferResult, error)
	listFn        func(ctx context.Context, userID, currency string, page, pageSize int) ([]models.WalletTransaction, int64, error)
}

func (m *mockWalletService) GetOrCreateWallet(ctx context.Context, userID, currency string) (*models.Wallet, error) {
	return m.getOrCreateFn(ctx, userID, currency)
}
func (m *mockWalletService) Deposit(ctx context.Context, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error) {
	return m.depositFn(ctx, userID, amount, currency, reference, description)
}
func (m *mockWalletService) CreditSale(ctx context.Context, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error) {
	return m.creditFn(ctx, userID, amount, currency, reference, description)
}
func (m *mockWalletService) CreditSaleTx(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error) {
	return m.creditFn(ctx, userID, amount, currency, reference, description)
}
func (m *mockWalletService) Transfer(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal, currency, reference, description string) (*service.TransferResult, error) {
	return m.transferFn(ctx, fromUserID, toUserID, amount, currency, reference, description)
}
func (m *mockWalletService) GetTransactions(ctx context.Context, userID, currency string, page, pageSize int) ([]models.WalletTransaction, int64, error) {
	return m.listFn(ctx, userID, currency, page, pageSize)
}

func newWalletContext(e *echo.Echo, method, target, body string, params map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

// --- Tests ---

func TestGetWallet_Handler_Success(t *testing.T) {
	svc := &mockWalletService{
		getOrCreateFn: func(ctx context.Context, userID, currency string) (*models.Wallet, error) {
			return &models.Wallet{ID: 1, UserID: userID, Currency: currency, Balance: decimal.Zero}, nil
		},
	}

	e := echo.New()
	c, rec := newWalletContext(e, http.MethodGet, "/api/v1/wallets/user-1/USD", "",
		map[string]string{"user_id": "user-1", "currency": "USD"})

	h := NewWalletHandler(svc)
	err := h.GetWallet(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.WalletResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", resp.UserID)
	assert.Equal(t, "USD", resp.Currency)
	assert.True(t, resp.Balance.IsZero())
}

func TestDeposit_Handler_Success(t *testing.T) {
	svc := &mockWalletService{
		depositFn: func(ctx context.Context, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error) {
			return &models.Wallet{ID: 1, UserID: userID, Currency: currency, Balance: amount}, nil
		},
	}

	e := echo.New()
	body := `{"user_id":"user-1","amount":"100.00","currency":"USD","reference":"topup-1"}`
	c, rec := newWalletContext(e, http.MethodPost, "/api/v1/wallets/deposit", body, nil)

	h := NewWalletHandler(svc)
	err := h.Deposit(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.WalletResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Balance.Equal(decimal.RequireFromString("100.00")))
}

func TestDeposit_Handler_ValidationError(t *testing.T) {
	svc := &mockWalletService{
		depositFn: func(ctx context.Context, userID string, amount decimal.Decimal, currency, reference, description string) (*models.Wallet, error) {
			return nil, service.ErrInvalidInput
		},
	}

	e := echo.New()
	body := `{"user_id":"user-1","amount":"-100.00","currency":"USD"}`
	c, _ := newWalletContext(e, http.MethodPost, "/api/v1/wallets/deposit", body, nil)

	h := NewWalletHandler(svc)
	err := h.Deposit(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestTransfer_Handler_Success(t *testing.T) {
	svc := &mockWalletService{
		transferFn: func(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal, currency, reference, description string) (*service.TransferResult, error) {
			return &service.TransferResult{
				From:       &models.Wallet{ID: 1, UserID: fromUserID, Currency: currency, Balance: decimal.RequireFromString("60.00")},
				To:         &models.Wallet{ID: 2, UserID: toUserID, Currency: currency, Balance: decimal.RequireFromString("40.00")},
				TransferID: "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
			}, nil
		},
	}

	e := echo.New()
	body := `{"from_user_id":"user-1","to_user_id":"user-2","amount":"40.00","currency":"USD"}`
	c, rec := newWalletContext(e, http.MethodPost, "/api/v1/wallets/transfer", body, nil)

	h := NewWalletHandler(svc)
	err := h.Transfer(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.TransferResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", resp.TransferID)
	assert.True(t, resp.From.Balance.Equal(decimal.RequireFromString("60.00")))
	assert.True(t, resp.To.Balance.Equal(decimal.RequireFromString("40.00")))
}

func TestTransfer_Handler_InsufficientFunds(t *testing.T) {
	svc := &mockWalletService{
		transferFn: func(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal, currency, reference, description string) (*service.TransferResult, error) {
			return nil, service.ErrInsufficientFunds
		},
	}

	e := echo.New()
	body := `{"from_user_id":"user-1","to_user_id":"user-2","amount":"1000.00","currency":"USD"}`
	c, _ := newWalletContext(e, http.MethodPost, "/api/v1/wallets/transfer", body, nil)

	h := NewWalletHandler(svc)
	err := h.Transfer(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
}

func TestListTransactions_Handler_Pagination(t *testing.T) {
	var capturedPage, capturedSize int
	svc := &mockWalletService{
		listFn: func(ctx context.Context, userID, currency string, page, pageSize int) ([]models.WalletTransaction, int64, error) {
			capturedPage, capturedSize = page, pageSize
			return []models.WalletTransaction{
				{ID: 2, WalletID: 1, Type: models.TxTransferIn, Amount: decimal.RequireFromString("40.00")},
				{ID: 1, WalletID: 1, Type: models.TxDeposit, Amount: decimal.RequireFromString("100.00")},
			}, 2, nil
		},
	}

	e := echo.New()
	c, rec := newWalletContext(e, http.MethodGet, "/api/v1/wallets/user-1/USD/transactions?page=2&page_size=10", "",
		map[string]string{"user_id": "user-1", "currency": "USD"})

	h := NewWalletHandler(svc)
	err := h.ListTransactions(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, capturedPage)
	assert.Equal(t, 10, capturedSize)

	var resp dto.TransactionListResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Transactions, 2)
	assert.Equal(t, int64(2), resp.Total)
}

func TestListTransactions_Handler_WalletNotFound(t *testing.T) {
	svc := &mockWalletService{
		listFn: func(ctx context.Context, userID, currency string, page, pageSize int) ([]models.WalletTransaction, int64, error) {
			return nil, 0, service.ErrWalletNotFound
		},
	}

	e := echo.New()
	c, _ := newWalletContext(e, http.MethodGet, "/api/v1/wallets/ghost/USD/transactions", "",
		map[string]string{"user_id": "ghost", "currency": "USD"})

	h := NewWalletHandler(svc)
	err := h.ListTransactions(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}
