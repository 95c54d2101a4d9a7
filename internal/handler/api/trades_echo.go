package api

import (
	"errors"
	"strconv"

	models "CoinPulse/internal/domain/models"
	"CoinPulse/internal/usecase"
	xhttp "CoinPulse/pkg/http"
	xlogger "CoinPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TradesEchoHandler exposes the trade journal CRUD endpoints.
type TradesEchoHandler struct {
	logger *xlogger.Logger
	trades *usecase.TradeService
}

func NewTradesEchoHandler(logger *xlogger.Logger, trades *usecase.TradeService) *TradesEchoHandler {
	return &TradesEchoHandler{logger: logger, trades: trades}
}

func (h *TradesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/trades")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/stats", h.Stats)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func tradeID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func (h *TradesEchoHandler) Create(c echo.Context) error {
	req := &models.TradeCreateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	t, err := h.trades.Create(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("trade create error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, t)
}

func (h *TradesEchoHandler) List(c echo.Context) error {
	req := &models.TradeListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	trades, total, err := h.trades.List(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("trade list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, trades, total)
}

func (h *TradesEchoHandler) Get(c echo.Context) error {
	id, err := tradeID(c)
	if err != nil {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError("invalid trade id"))
	}

	t, err := h.trades.Get(c.Request().Context(), id)
	if errors.Is(err, usecase.ErrTradeNotFound) {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundError("trade not found"))
	}
	if err != nil {
		h.logger.Error("trade get error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, t)
}

func (h *TradesEchoHandler) Update(c echo.Context) error {
	id, err := tradeID(c)
	if err != nil {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError("invalid trade id"))
	}

	req := &models.TradeUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	t, err := h.trades.Update(c.Request().Context(), id, req)
	if errors.Is(err, usecase.ErrTradeNotFound) {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundError("trade not found"))
	}
	if err != nil {
		h.logger.Error("trade update error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, t)
}

func (h *TradesEchoHandler) Delete(c echo.Context) error {
	id, err := tradeID(c)
	if err != nil {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError("invalid trade id"))
	}

	err = h.trades.Delete(c.Request().Context(), id)
	if errors.Is(err, usecase.ErrTradeNotFound) {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundError("trade not found"))
	}
	if err != nil {
		h.logger.Error("trade delete error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *TradesEchoHandler) Stats(c echo.Context) error {
	st, err := h.trades.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("trade stats error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, st)
}
