// Package api exposes the calculator over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"levercalc/internal/calc"
	"levercalc/internal/errors"
	"levercalc/internal/form"
	"levercalc/internal/logging"
)

// Defaults fills the optional request fields.
type Defaults struct {
	FeeRate      float64
	ExchangeRate float64
}

// CalculateRequest is the body of POST /v1/calculate. Fields left out take
// the configured defaults.
type CalculateRequest struct {
	EntryPrice   float64  `json:"entry_price"`
	TargetPrice  float64  `json:"target_price"`
	Leverage     int      `json:"leverage"`
	Position     string   `json:"position"`
	CapitalUSD   float64  `json:"capital_usd"`
	ExchangeRate *float64 `json:"exchange_rate"`
	FeeRate      *float64 `json:"fee_rate"`
}

// CalculateResponse is the body of a successful calculation.
type CalculateResponse struct {
	Input          calc.Input  `json:"input"`
	Result         calc.Result `json:"result"`
	BreakEvenPrice float64     `json:"break_even_price"`
}

// ErrorResponse describes a rejected request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message,omitempty"`
}

// Handler serves calculations. It holds no mutable state, so one instance
// serves all requests.
type Handler struct {
	defaults Defaults
	logger   zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(defaults Defaults, logger zerolog.Logger) *Handler {
	return &Handler{defaults: defaults, logger: logging.WithOperation(logger, "api")}
}

// Health handles /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Calculate handles POST /v1/calculate.
func (h *Handler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug().Err(err).Msg("Malformed request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   errors.MsgCheckInput,
			Kind:    errors.KindParse.String(),
			Message: "request body must be a JSON object",
		})
		return
	}

	in, err := h.input(req)
	if err == nil {
		var res calc.Result
		res, err = calc.Compute(in)
		if err == nil {
			logging.LogCalculation(h.logger, in, res)
			breakEven, _ := calc.BreakEvenPrice(in)
			c.JSON(http.StatusOK, CalculateResponse{Input: in, Result: res, BreakEvenPrice: breakEven})
			return
		}
	}

	logging.LogRejected(h.logger, err)
	c.JSON(http.StatusUnprocessableEntity, newErrorResponse(err))
}

func (h *Handler) input(req CalculateRequest) (calc.Input, error) {
	pos, err := form.ParsePosition(req.Position)
	if err != nil {
		return calc.Input{}, err
	}

	in := calc.Input{
		EntryPrice:   req.EntryPrice,
		TargetPrice:  req.TargetPrice,
		Leverage:     req.Leverage,
		Position:     pos,
		CapitalUSD:   req.CapitalUSD,
		ExchangeRate: h.defaults.ExchangeRate,
		FeeRate:      h.defaults.FeeRate,
	}
	if req.ExchangeRate != nil {
		in.ExchangeRate = *req.ExchangeRate
	}
	if req.FeeRate != nil {
		in.FeeRate = *req.FeeRate
	}
	return in, nil
}

func newErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: errors.UserMessage(err)}
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		resp.Kind = ve.Kind.String()
		resp.Field = ve.Field
		resp.Rule = ve.Rule
		resp.Message = ve.Message
	}
	return resp
}
