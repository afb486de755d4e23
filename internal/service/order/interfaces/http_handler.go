package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"figurestore/internal/pkg/logger"
	"figurestore/internal/service/order/application"
	"figurestore/internal/service/order/domain"
	"figurestore/internal/service/order/domain/port"
)

const (
	serviceName     = "figures-service"
	maxRequestBytes = 1 << 20
)

// OrderHandler 封装了下单服务的 HTTP 处理器
type OrderHandler struct {
	coordinator *application.Coordinator
	stock       port.StockInspector
	tracer      trace.Tracer
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例。stock 为 nil 时不提供库存查询。
func NewOrderHandler(coordinator *application.Coordinator, stock port.StockInspector) *OrderHandler {
	return &OrderHandler{coordinator: coordinator, stock: stock, tracer: otel.Tracer(serviceName)}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("POST /orders", h.placeOrderHandler)
	mux.HandleFunc("GET /orders/{id}", h.getOrderHandler)
	if h.stock != nil {
		mux.HandleFunc("GET /stock", h.stockHandler)
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

type stockResponse struct {
	Type      string `json:"type"`
	Available int64  `json:"available"`
}

func (h *OrderHandler) placeOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := h.tracer.Start(ctx, "http.PlaceOrder", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	var req application.PlaceOrderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error(), Code: "bad_request"})
		return
	}

	cart, err := req.ToCart()
	if err != nil {
		writeError(w, err)
		return
	}
	span.SetAttributes(attribute.Int("cart.positions", len(cart.Positions)))

	receipt, err := h.coordinator.PlaceOrder(ctx, cart)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, application.NewPlaceOrderResponse(receipt))
}

func (h *OrderHandler) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := h.tracer.Start(ctx, "http.GetOrder", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	order, err := h.coordinator.GetOrder(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application.NewOrderResponse(order))
}

func (h *OrderHandler) stockHandler(w http.ResponseWriter, r *http.Request) {
	typeKey := r.URL.Query().Get("type")
	switch domain.Kind(typeKey) {
	case domain.KindTriangle, domain.KindSquare, domain.KindCircle:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown figure type " + typeKey, Code: "bad_request"})
		return
	}

	available, err := h.stock.Available(r.Context(), typeKey)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Str("type", typeKey).Msg("failed to read stock")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Code: "stock_unavailable", Retryable: true})
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{Type: typeKey, Available: available})
}

// statusOf 把领域错误映射为 HTTP 状态码和错误码。
// 补偿失败优先判断，因为它同时匹配触发补偿的原始错误。
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrCompensationFailed):
		return http.StatusInternalServerError, "compensation_failed"
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, domain.ErrInvalidPosition):
		return http.StatusBadRequest, "invalid_position"
	case errors.Is(err, domain.ErrInvalidFigure):
		return http.StatusBadRequest, "invalid_figure"
	case errors.Is(err, domain.ErrOutOfStock):
		return http.StatusConflict, "out_of_stock"
	case errors.Is(err, domain.ErrPersistenceFailed):
		return http.StatusServiceUnavailable, "persistence_failed"
	case errors.Is(err, domain.ErrStockUnavailable):
		return http.StatusServiceUnavailable, "stock_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code, Retryable: domain.Retryable(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
