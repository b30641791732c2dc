package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cashier/internal/cashier"
)

const maxBodyBytes = 1 << 16

// intentFunc runs one controller intent.
type intentFunc func(ctx context.Context, c *cashier.Controller) (cashier.Event, error)

// serveIntent runs fn under the till lock and writes the resulting event.
func (h *Handler) serveIntent(w http.ResponseWriter, r *http.Request, fn intentFunc) {
	till := r.PathValue("till")
	ctx := zctx.With(r.Context(), zap.String("till", till))

	s := h.acquire(till)
	e, err := fn(ctx, s.ctrl)
	var body []byte
	if err == nil {
		body = encodeEvent(e)
	}
	h.release(till, s)

	if err != nil {
		zctx.From(ctx).Error("Till intent failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	h.serveIntent(w, r, func(ctx context.Context, c *cashier.Controller) (cashier.Event, error) {
		return c.Refresh(ctx), nil
	})
}

type checkRequest struct {
	Code     string
	Quantity int
}

func decodeCheck(d *jx.Decoder) (checkRequest, error) {
	req := checkRequest{Quantity: 1}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			req.Code, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return req, err
	}
	if req.Code == "" {
		return req, errors.New("code is required")
	}
	return req, nil
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	req, err := readBody(r, decodeCheck)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.serveIntent(w, r, func(ctx context.Context, c *cashier.Controller) (cashier.Event, error) {
		return c.DoCheck(ctx, req.Code, req.Quantity)
	})
}

func (h *Handler) buy(w http.ResponseWriter, r *http.Request) {
	h.serveIntent(w, r, func(ctx context.Context, c *cashier.Controller) (cashier.Event, error) {
		return c.DoBuy(ctx)
	})
}

func (h *Handler) bought(w http.ResponseWriter, r *http.Request) {
	h.serveIntent(w, r, func(ctx context.Context, c *cashier.Controller) (cashier.Event, error) {
		e, err := c.DoBought(ctx)
		if err == nil && e.Confirmation != nil {
			zctx.From(ctx).Info("Order submitted",
				zap.String("order_id", e.Confirmation.ID),
				zap.Int("order_number", e.Confirmation.OrderNumber),
				zap.String("total", e.Confirmation.Total.StringFixed(2)),
			)
		}
		return e, err
	})
}

func (h *Handler) discount(w http.ResponseWriter, r *http.Request) {
	h.serveIntent(w, r, func(ctx context.Context, c *cashier.Controller) (cashier.Event, error) {
		return c.DoDiscount(ctx)
	})
}

type removeRequest struct {
	Index int
}

func decodeRemove(d *jx.Decoder) (removeRequest, error) {
	var (
		req removeRequest
		set bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "index":
			req.Index, err = d.Int()
			set = true
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return req, err
	}
	if !set {
		return req, errors.New("index is required")
	}
	return req, nil
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	req, err := readBody(r, decodeRemove)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.serveIntent(w, r, func(ctx context.Context, c *cashier.Controller) (cashier.Event, error) {
		return c.DoRemove(ctx, req.Index)
	})
}
