package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cashier/internal/cashier"
	"github.com/xenking/cashier/internal/domain/stock"
)

// readBody decodes a size-limited JSON request body with decode.
func readBody[T any](r *http.Request, decode func(*jx.Decoder) (T, error)) (T, error) {
	var zero T
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return zero, errors.Wrap(err, "read body")
	}
	if len(data) > maxBodyBytes {
		return zero, errors.New("body too large")
	}
	if len(data) == 0 {
		return zero, errors.New("empty body")
	}
	v, err := decode(jx.DecodeBytes(data))
	if err != nil {
		return zero, errors.Wrap(err, "invalid body")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, code int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, code, e.Bytes())
}

// encodeEvent renders the till state after an intent.
func encodeEvent(ev cashier.Event) []byte {
	var e jx.Encoder
	e.ObjStart()

	e.FieldStart("intent")
	e.Str(string(ev.Intent))
	e.FieldStart("message")
	e.Str(ev.Message)
	e.FieldStart("state")
	e.Str(ev.State.String())
	e.FieldStart("changed")
	e.Bool(ev.Changed)

	b := ev.Basket
	e.FieldStart("orderNumber")
	if b != nil && b.OrderNumber() > 0 {
		e.Int(b.OrderNumber())
	} else {
		e.Null()
	}

	e.FieldStart("items")
	e.ArrStart()
	if b != nil {
		for _, item := range b.Items() {
			e.ObjStart()
			e.FieldStart("code")
			e.Str(item.ProductCode)
			e.FieldStart("description")
			e.Str(item.Description)
			e.FieldStart("unitPrice")
			e.Str(item.UnitPrice.StringFixed(2))
			e.FieldStart("quantity")
			e.Int(item.Quantity)
			e.FieldStart("amount")
			e.Str(item.Extended().StringFixed(2))
			e.ObjEnd()
		}
	}
	e.ArrEnd()

	e.FieldStart("total")
	if b != nil {
		e.Str(b.TotalPrice().StringFixed(2))
	} else {
		e.Str("0.00")
	}

	e.FieldStart("summary")
	if b != nil && !b.IsEmpty() {
		e.Str(b.Details())
	} else {
		e.Str(Placeholder)
	}

	if c := ev.Confirmation; c != nil {
		e.FieldStart("confirmation")
		e.ObjStart()
		e.FieldStart("id")
		e.Str(c.ID)
		e.FieldStart("orderNumber")
		e.Int(c.OrderNumber)
		e.FieldStart("total")
		e.Str(c.Total.StringFixed(2))
		e.ObjEnd()
	}

	e.ObjEnd()
	return e.Bytes()
}

func encodeProducts(products []stock.Product) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, p := range products {
		e.ObjStart()
		e.FieldStart("code")
		e.Str(p.Code)
		e.FieldStart("description")
		e.Str(p.Description)
		e.FieldStart("price")
		e.Str(p.Price.StringFixed(2))
		e.FieldStart("quantity")
		e.Int(p.Available)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.stock.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("List products failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, encodeProducts(products))
}
