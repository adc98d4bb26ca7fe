package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/billing"
	"github.com/adisyo/adisyo-pos/database"
	"github.com/adisyo/adisyo-pos/ledger"
	"github.com/adisyo/adisyo-pos/models"
	"github.com/adisyo/adisyo-pos/router"
	"github.com/adisyo/adisyo-pos/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
	os.Exit(m.Run())
}

var dbCounter int64

// newTestServer runs the real router against a seeded in-memory
// database, so the client is exercised against the exact server it
// ships with.
func newTestServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()

	name := fmt.Sprintf("file:ledger%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	server := httptest.NewServer(router.SetupRouter(db, nil))
	t.Cleanup(server.Close)
	return server, db
}

func menuItemID(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	var item models.MenuItem
	assert.NoError(t, db.First(&item, "name = ?", name).Error)
	return item.ID
}

func loginWaiter(t *testing.T, client *ledger.Client) {
	t.Helper()
	_, err := client.Login(context.Background(), "garson1", "1234")
	assert.NoError(t, err)
}

// countingTransport counts non-GET requests so a test can prove an
// operation never issued a mutation.
type countingTransport struct {
	base      http.RoundTripper
	mutations int32
}

func (ct *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		atomic.AddInt32(&ct.mutations, 1)
	}
	return ct.base.RoundTrip(req)
}

func TestLoginMeLogout(t *testing.T) {
	server, _ := newTestServer(t)
	client := ledger.NewClient(server.URL, nil)
	ctx := context.Background()

	user, err := client.Login(ctx, "garson2", "1234")
	assert.NoError(t, err)
	assert.Equal(t, "garson2", user.Username)
	assert.Equal(t, models.RoleWaiter, user.Role)

	me, err := client.Me(ctx)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	assert.NoError(t, client.Logout(ctx))

	_, err = client.Me(ctx)
	var apiErr *ledger.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestLoginBadPassword(t *testing.T) {
	server, _ := newTestServer(t)
	client := ledger.NewClient(server.URL, nil)

	_, err := client.Login(context.Background(), "garson1", "wrong")
	var apiErr *ledger.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}

func TestAddLineRoundTrip(t *testing.T) {
	server, db := newTestServer(t)
	client := ledger.NewClient(server.URL, nil)
	ctx := context.Background()
	loginWaiter(t, client)

	opened, err := client.OpenTable(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderOpen, opened.Status)
	assert.Empty(t, opened.Items)

	order, err := client.AddLine(ctx, opened.ID, menuItemID(t, db, "Ayran"), 2, "")
	assert.NoError(t, err)
	assert.Len(t, order.Items, 1)

	// Name and price are snapshotted from the catalog on the server.
	assert.Equal(t, "Ayran", order.Items[0].Name)
	assert.Equal(t, 30.0, order.Items[0].Price)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.Equal(t, 60.0, order.Subtotal)
	assert.Equal(t, 6.0, order.TaxAmount)
	assert.Equal(t, 66.0, order.Total)
	assert.Greater(t, order.Version, opened.Version)
}

func TestChangeQuantityUpdatesAndDeletesAtZero(t *testing.T) {
	server, db := newTestServer(t)
	client := ledger.NewClient(server.URL, nil)
	ctx := context.Background()
	loginWaiter(t, client)

	opened, err := client.OpenTable(ctx, 2)
	assert.NoError(t, err)
	order, err := client.AddLine(ctx, opened.ID, menuItemID(t, db, "Cay"), 1, "")
	assert.NoError(t, err)
	lineID := order.Items[0].ID

	order, err = client.ChangeQuantity(ctx, opened.ID, lineID, 2)
	assert.NoError(t, err)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, 60.0, order.Subtotal)

	// Dropping to zero removes the line entirely.
	order, err = client.ChangeQuantity(ctx, opened.ID, lineID, -3)
	assert.NoError(t, err)
	assert.Empty(t, order.Items)
	assert.Equal(t, 0.0, order.Subtotal)
	assert.Equal(t, 0.0, order.Total)
}

func TestChangeQuantityMissingLineIssuesNoMutation(t *testing.T) {
	server, db := newTestServer(t)

	transport := &countingTransport{base: http.DefaultTransport}
	client := ledger.NewClient(server.URL, &http.Client{Transport: transport})
	ctx := context.Background()
	loginWaiter(t, client)

	opened, err := client.OpenTable(ctx, 3)
	assert.NoError(t, err)
	_, err = client.AddLine(ctx, opened.ID, menuItemID(t, db, "Su"), 1, "")
	assert.NoError(t, err)

	before := atomic.LoadInt32(&transport.mutations)

	_, err = client.ChangeQuantity(ctx, opened.ID, 99999, 1)
	assert.ErrorIs(t, err, ledger.ErrLineNotFound)

	// Only the re-fetch went out; the stale line produced no PUT or
	// DELETE.
	assert.Equal(t, before, atomic.LoadInt32(&transport.mutations))
}

func TestChangeQuantityConflict(t *testing.T) {
	// The real client re-fetches immediately before writing, so a stale
	// token needs a window this small: a fixed server that changes the
	// order between the client's GET and PUT.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/7", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"data":{"id":7,"status":"open","version":3,"items":[{"id":12,"quantity":2}]}}`)
	})
	mux.HandleFunc("PUT /api/orders/7/items/12", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"success":false,"error":"order was modified by another device"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := ledger.NewClient(server.URL, nil)
	client.SetToken("test-token")

	_, err := client.ChangeQuantity(context.Background(), 7, 12, 1)
	assert.ErrorIs(t, err, ledger.ErrConflict)
	assert.Contains(t, err.Error(), "another device")
}

func TestSetNote(t *testing.T) {
	server, db := newTestServer(t)
	client := ledger.NewClient(server.URL, nil)
	ctx := context.Background()
	loginWaiter(t, client)

	opened, err := client.OpenTable(ctx, 4)
	assert.NoError(t, err)
	order, err := client.AddLine(ctx, opened.ID, menuItemID(t, db, "Adana Kebap"), 1, "")
	assert.NoError(t, err)

	order, err = client.SetNote(ctx, opened.ID, order.Items[0].ID, "az pismis")
	assert.NoError(t, err)
	assert.Equal(t, "az pismis", order.Items[0].Note)
}

func TestPreviewMatchesCommit(t *testing.T) {
	server, db := newTestServer(t)
	client := ledger.NewClient(server.URL, nil)
	ctx := context.Background()
	loginWaiter(t, client)

	opened, err := client.OpenTable(ctx, 5)
	assert.NoError(t, err)
	order, err := client.AddLine(ctx, opened.ID, menuItemID(t, db, "Kunefe"), 2, "")
	assert.NoError(t, err)

	draft := billing.Draft{
		DiscountType:  billing.DiscountPercent,
		DiscountValue: 10,
		PaymentMethod: billing.PayCard,
	}

	preview := client.PreviewPayment(order, draft)
	assert.Equal(t, 300.0, preview.Subtotal)
	assert.Equal(t, 30.0, preview.Discount)
	assert.Equal(t, 300.0, preview.Total)

	paid, err := client.CommitPayment(ctx, opened.ID, draft)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderPaid, paid.Status)
	assert.Equal(t, preview.Discount, paid.DiscountAmount)
	assert.Equal(t, preview.Total, paid.Total)
	assert.Equal(t, billing.PayCard, paid.PaymentMethod)
}

func TestCommitPaymentFailureLeavesDraftUsable(t *testing.T) {
	server, db := newTestServer(t)
	client := ledger.NewClient(server.URL, nil)
	ctx := context.Background()
	loginWaiter(t, client)

	opened, err := client.OpenTable(ctx, 6)
	assert.NoError(t, err)
	_, err = client.AddLine(ctx, opened.ID, menuItemID(t, db, "Kola"), 1, "")
	assert.NoError(t, err)

	draft := billing.NewDraft()
	_, err = client.CommitPayment(ctx, opened.ID, draft)
	assert.NoError(t, err)

	// Second commit fails with the server's message. The draft itself
	// is untouched and can back a corrected retry.
	_, err = client.CommitPayment(ctx, opened.ID, draft)
	var apiErr *ledger.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
	assert.NoError(t, draft.Validate())
}

func TestCommitPaymentRejectsInvalidDraftLocally(t *testing.T) {
	transport := &countingTransport{base: http.DefaultTransport}
	client := ledger.NewClient("http://unreachable.invalid", &http.Client{Transport: transport})

	draft := billing.Draft{
		DiscountType:  billing.DiscountPercent,
		DiscountValue: 150,
		PaymentMethod: billing.PayCash,
	}

	_, err := client.CommitPayment(context.Background(), 1, draft)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ledger.ErrConflict)
	assert.Zero(t, atomic.LoadInt32(&transport.mutations))
}

func TestAPIErrorMessageFallback(t *testing.T) {
	err := &ledger.APIError{StatusCode: http.StatusBadGateway}
	assert.Equal(t, "request failed with status 502", err.Error())

	err = &ledger.APIError{StatusCode: http.StatusBadRequest, Message: "quantity must be positive"}
	assert.Equal(t, "quantity must be positive", err.Error())
}

func TestErrLineNotFoundIsSentinel(t *testing.T) {
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", ledger.ErrLineNotFound), ledger.ErrLineNotFound))
}
