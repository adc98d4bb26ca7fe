// Package ledger is the order-side client of the POS API. It keeps a
// till's view of an open tab consistent with the server: every
// mutation answers with the full refreshed order, and the client
// always replaces its snapshot with that response instead of deriving
// totals locally. The one client-side computation, the payment
// preview, is the same shared billing function the server runs on
// commit.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/adisyo/adisyo-pos/billing"
	"github.com/adisyo/adisyo-pos/models"
)

var (
	// ErrLineNotFound means the targeted line is gone from the
	// re-fetched order; no mutation request was issued.
	ErrLineNotFound = errors.New("order line not found")
	// ErrConflict means the server rejected a mutation carrying a
	// stale version token; re-fetch and retry.
	ErrConflict = errors.New("order changed concurrently")
)

// APIError carries the server's human-readable message alongside the
// HTTP status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Client talks to one POS server. Construct it explicitly and pass it
// where needed; there is no package-level instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// SetToken installs a bearer token obtained outside Login.
func (c *Client) SetToken(token string) {
	c.token = token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// do issues one request and decodes the envelope into out (when out is
// non-nil). Failures never mutate client state beyond the wire call.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "unexpected server response"}
	}

	if !env.Success {
		if resp.StatusCode == http.StatusConflict {
			return fmt.Errorf("%w: %s", ErrConflict, env.Error)
		}
		message := env.Error
		if message == "" {
			message = env.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return err
		}
	}
	return nil
}

// Login authenticates and keeps the returned token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	var result struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &result)
	if err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result.User, nil
}

// Logout revokes the session token server-side and drops it locally.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// Me returns the user behind the current token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// OpenTable opens (or resumes) the table's tab and returns the order
// snapshot.
func (c *Client) OpenTable(ctx context.Context, tableID uint) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tables/%d/open", tableID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches the authoritative order snapshot.
func (c *Client) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// AddLine adds quantity of a menu item to the order and returns the
// server's refreshed snapshot.
func (c *Client) AddLine(ctx context.Context, orderID, menuItemID uint, quantity int, note string) (*models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/orders/%d/items", orderID), map[string]interface{}{
		"menu_item_id": menuItemID,
		"quantity":     quantity,
		"note":         note,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ChangeQuantity adjusts a line by delta as one logical
// read-then-decide-then-write step: it re-fetches the order, locates
// the line, then issues a delete (new quantity ≤ 0) or an update,
// carrying the fetched version token so a concurrent edit surfaces as
// ErrConflict instead of silently losing the write. A line missing
// from the fresh snapshot returns ErrLineNotFound without issuing a
// mutation.
func (c *Client) ChangeQuantity(ctx context.Context, orderID, lineID uint, delta int) (*models.Order, error) {
	current, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var line *models.OrderItem
	for i := range current.Items {
		if current.Items[i].ID == lineID {
			line = &current.Items[i]
			break
		}
	}
	if line == nil {
		return nil, ErrLineNotFound
	}

	newQty := line.Quantity + delta
	var order models.Order
	if newQty <= 0 {
		path := fmt.Sprintf("/api/orders/%d/items/%d?expected_version=%d", orderID, lineID, current.Version)
		err = c.do(ctx, http.MethodDelete, path, nil, &order)
	} else {
		err = c.do(ctx, http.MethodPut, fmt.Sprintf("/api/orders/%d/items/%d", orderID, lineID), map[string]interface{}{
			"quantity":         newQty,
			"expected_version": current.Version,
		}, &order)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetNote replaces the line's note. Notes are unconstrained free text.
func (c *Client) SetNote(ctx context.Context, orderID, lineID uint, note string) (*models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/orders/%d/items/%d", orderID, lineID), map[string]interface{}{
		"note": note,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// PreviewPayment computes the displayed discount and total for a
// draft. Pure passthrough to the shared billing function; the server
// runs the identical computation on commit, and if they ever disagree
// the committed order returned by CommitPayment wins.
func (c *Client) PreviewPayment(order *models.Order, draft billing.Draft) billing.Preview {
	return billing.PreviewPayment(order.Subtotal, order.TaxAmount, draft)
}

// CommitPayment submits the draft. On success the order is closed and
// the caller discards its local order and draft state; on failure the
// draft is untouched and the returned error carries the server's
// message for display.
func (c *Client) CommitPayment(ctx context.Context, orderID uint, draft billing.Draft) (*models.Order, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var order models.Order
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/orders/%d/payment", orderID), map[string]interface{}{
		"discount_type":  draft.DiscountType,
		"discount_value": draft.DiscountValue,
		"payment_method": draft.PaymentMethod,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// PrintTickets asks the server to dispatch kitchen tickets for the
// order's unprinted items.
func (c *Client) PrintTickets(ctx context.Context, orderID uint) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/orders/%d/print", orderID), nil, nil)
}
