package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"eden/internal/apperr"
	"eden/internal/checkout"
)

const cartKey = "cart" // map[string]int, product id -> quantity

func getCart(c *gin.Context) map[string]int {
	raw := sessions.Default(c).Get(cartKey)
	m, ok := raw.(map[string]int)
	if !ok {
		return map[string]int{}
	}
	return m
}

func saveCart(c *gin.Context, cart map[string]int) error {
	sess := sessions.Default(c)
	if len(cart) == 0 {
		sess.Delete(cartKey)
	} else {
		sess.Set(cartKey, cart)
	}
	return sess.Save()
}

// cartLines turns the session cart into checkout lines, ordered by product id.
func cartLines(cart map[string]int) []checkout.Line {
	lines := make([]checkout.Line, 0, len(cart))
	for id, qty := range cart {
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			continue
		}
		lines = append(lines, checkout.Line{ProductID: uint(n), Quantity: qty})
	}
	checkout.SortLines(lines)
	return lines
}

type cartChange struct {
	ProductID uint `json:"product_id" form:"product_id"`
	Quantity  *int `json:"quantity" form:"quantity"`
}

func (h *handler) bindCartChange(c *gin.Context, op string) (cartChange, bool) {
	var in cartChange
	if err := c.ShouldBind(&in); err != nil {
		h.writeError(c, badRequest(op, err))
		return in, false
	}
	if in.ProductID == 0 {
		h.writeError(c, apperr.Validation(op, "product_id is required"))
		return in, false
	}
	return in, true
}

func (h *handler) viewCart(c *gin.Context) {
	h.renderCart(c, getCart(c))
}

func (h *handler) renderCart(c *gin.Context, cart map[string]int) {
	if len(cart) == 0 {
		c.JSON(http.StatusOK, checkout.Quote{Lines: []checkout.PricedLine{}})
		return
	}
	q, err := h.Checkout.Quote(c.Request.Context(), cartLines(cart))
	if err != nil {
		h.writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *handler) addToCart(c *gin.Context) {
	const op = "httpapi.addToCart"
	in, ok := h.bindCartChange(c, op)
	if !ok {
		return
	}
	qty := 1
	if in.Quantity != nil && *in.Quantity > 0 {
		qty = *in.Quantity
	}
	cart := getCart(c)
	id := strconv.FormatUint(uint64(in.ProductID), 10)
	if qty > checkout.MaxQuantity-cart[id] {
		h.writeError(c, apperr.Validation(op, "quantity of product %d must be at most %d", in.ProductID, checkout.MaxQuantity))
		return
	}
	// the product must be buyable right now
	if _, err := h.Checkout.Quote(c.Request.Context(), []checkout.Line{{ProductID: in.ProductID, Quantity: qty}}); err != nil {
		h.writeError(c, err)
		return
	}

	cart[id] += qty
	if err := saveCart(c, cart); err != nil {
		h.writeError(c, err)
		return
	}
	h.renderCart(c, cart)
}

func (h *handler) updateCart(c *gin.Context) {
	const op = "httpapi.updateCart"
	in, ok := h.bindCartChange(c, op)
	if !ok {
		return
	}
	if in.Quantity != nil && *in.Quantity > checkout.MaxQuantity {
		h.writeError(c, apperr.Validation(op, "quantity of product %d must be at most %d", in.ProductID, checkout.MaxQuantity))
		return
	}
	cart := getCart(c)
	id := strconv.FormatUint(uint64(in.ProductID), 10)
	if in.Quantity == nil || *in.Quantity <= 0 {
		delete(cart, id)
	} else {
		cart[id] = *in.Quantity
	}
	if err := saveCart(c, cart); err != nil {
		h.writeError(c, err)
		return
	}
	h.renderCart(c, cart)
}

func (h *handler) removeFromCart(c *gin.Context) {
	in, ok := h.bindCartChange(c, "httpapi.removeFromCart")
	if !ok {
		return
	}
	cart := getCart(c)
	delete(cart, strconv.FormatUint(uint64(in.ProductID), 10))
	if err := saveCart(c, cart); err != nil {
		h.writeError(c, err)
		return
	}
	h.renderCart(c, cart)
}

// clientTotal accepts the storefront's total as a JSON number or as the string it
// scraped from the page ("₱33.60").
type clientTotal struct {
	Value *float64
}

func (t *clientTotal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "₱"))
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		t.Value = &v
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	t.Value = &v
	return nil
}

type checkoutBody struct {
	Email string          `json:"email"`
	Cart  []checkout.Line `json:"cart"`
	Total clientTotal     `json:"total"`
}

func (h *handler) checkout(c *gin.Context) {
	const op = "httpapi.checkout"
	var in checkoutBody
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, badRequest(op, err))
		return
	}
	fromSession := len(in.Cart) == 0
	if fromSession {
		in.Cart = cartLines(getCart(c))
	}

	res, err := h.Checkout.Checkout(c.Request.Context(), checkout.Request{
		Email:          in.Email,
		Lines:          in.Cart,
		ClientTotal:    in.Total.Value,
		IdempotencyKey: strings.TrimSpace(c.GetHeader("Idempotency-Key")),
	})
	if err != nil {
		h.writeCartError(c, err)
		return
	}
	if fromSession {
		if err := saveCart(c, nil); err != nil {
			h.Log.Warn("session cart not cleared", "error", err)
		}
	}
	body := gin.H{"success": true, "order": res.Quote}
	c.JSON(http.StatusOK, withDelivery(body, res.Delivery))
}

type gcashBody struct {
	Cart     []checkout.Line `json:"cart"`
	Currency string          `json:"currency"`
}

func (h *handler) gcash(c *gin.Context) {
	const op = "httpapi.gcash"
	var in gcashBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			h.writeError(c, badRequest(op, err))
			return
		}
	}
	if len(in.Cart) == 0 {
		in.Cart = cartLines(getCart(c))
	}
	if in.Currency == "" {
		in.Currency = "PHP"
	}
	if h.Payments == nil {
		h.writeError(c, apperr.Dependency(op, "payments are not configured", nil))
		return
	}

	q, err := h.Checkout.Quote(c.Request.Context(), in.Cart)
	if err != nil {
		h.writeCartError(c, err)
		return
	}
	base := strings.TrimRight(h.PublicBaseURL, "/")
	src, err := h.Payments.CreateGCashSource(c.Request.Context(), q.Total, in.Currency,
		base+"/payment-success.html", base+"/payment-failed.html")
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.Log.Info("gcash source created", "source_id", src.ID, "amount", q.Total.String())
	c.JSON(http.StatusOK, gin.H{"checkout_url": src.CheckoutURL, "source_id": src.ID, "amount": q.Total})
}
