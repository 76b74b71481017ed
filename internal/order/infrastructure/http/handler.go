package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/order/domain"
	"github.com/dmehra2102/orderflow/pkg/logging"
	"github.com/dmehra2102/orderflow/pkg/tracing"
)

const UserIDHeader = "X-User-ID"

type Creator interface {
	Create(ctx context.Context, draft domain.Draft) (domain.Order, error)
}

type Reader interface {
	GetByID(ctx context.Context, id string) (domain.EnrichedOrder, error)
	List(ctx context.Context) ([]domain.EnrichedOrder, error)
}

type Handler struct {
	log     *zap.Logger
	creator Creator
	reader  Reader
}

func NewHandler(log *zap.Logger, creator Creator, reader Reader) *Handler {
	return &Handler{
		log:     log,
		creator: creator,
		reader:  reader,
	}
}

type createOrderReq struct {
	ClientDocument string `json:"client_document"`
	Items          []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

type orderItemResp struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderResp struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	SellerName     string          `json:"seller_name"`
	ClientDocument string          `json:"client_document"`
	Items          []orderItemResp `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

type errorResp struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(tracing.HTTPServer("order-http"))
	r.Use(logging.Middleware(h.log))

	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	return r
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid body"})
		return
	}

	draft := domain.Draft{
		UserID:         r.Header.Get(UserIDHeader),
		ClientDocument: req.ClientDocument,
		Items:          make([]domain.DraftItem, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		draft.Items = append(draft.Items, domain.DraftItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	created, err := h.creator.Create(r.Context(), draft)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	view, err := h.reader.GetByID(r.Context(), created.ID)
	if err != nil {
		logging.FromContext(r.Context(), h.log).Warn("enrich created order failed",
			zap.String("order_id", created.ID), zap.Error(err))
		view = domain.View(created)
	}
	w.Header().Set("Location", "/orders/"+created.ID)
	writeJSON(w, http.StatusCreated, toResp(view))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.reader.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResp(view))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	views, err := h.reader.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]orderResp, 0, len(views))
	for _, v := range views {
		out = append(out, toResp(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := errorResp{Error: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Problems = verr.Problems
	}
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context(), h.log).Error("request failed", zap.Int("status", status), zap.Error(err))
		body.Error = http.StatusText(status)
	}
	writeJSON(w, status, body)
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProductUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPersistence),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func toResp(v domain.EnrichedOrder) orderResp {
	out := orderResp{
		ID:             v.ID,
		UserID:         v.UserID,
		SellerName:     v.SellerName,
		ClientDocument: v.ClientDocument,
		TotalAmount:    v.TotalAmount,
		CreatedAt:      v.CreatedAt,
		Items:          make([]orderItemResp, 0, len(v.Items)),
	}
	for _, it := range v.Items {
		out.Items = append(out.Items, orderItemResp{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
