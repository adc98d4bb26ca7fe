package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSettings(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(t, r, http.MethodGet, "/api/settings", waiterToken(t), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var settings map[string]string
	decodeData(t, w, &settings)
	assert.Equal(t, "Adisyo Restaurant", settings["restaurant_name"])
	assert.Equal(t, "TL", settings["currency"])
	assert.Equal(t, "10", settings["tax_rate"])
	assert.Equal(t, "true", settings["print_enabled"])
}

func TestUpdateSettingsUpserts(t *testing.T) {
	r, _ := setupRouter(t)
	token := adminToken(t)

	w := doRequest(t, r, http.MethodPut, "/api/settings", token, map[string]interface{}{
		"restaurant_name": "Yeni Adisyo",
		"tax_rate":        8,
		"brand_new_key":   "value",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var settings map[string]string
	w = doRequest(t, r, http.MethodGet, "/api/settings", token, nil)
	decodeData(t, w, &settings)
	assert.Equal(t, "Yeni Adisyo", settings["restaurant_name"])
	assert.Equal(t, "8", settings["tax_rate"])
	assert.Equal(t, "value", settings["brand_new_key"])
}

func TestUpdateSettingsRequiresAdmin(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(t, r, http.MethodPut, "/api/settings", waiterToken(t), map[string]interface{}{
		"tax_rate": 0,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// The tax rate is snapshotted when the order opens, so changing it
// must not rewrite an already open tab.
func TestTaxRateSnapshotAtOpen(t *testing.T) {
	r, _ := setupRouter(t)
	waiter := waiterToken(t)
	admin := adminToken(t)

	before := openOrderForTable(t, r, waiter, 8)
	assert.Equal(t, 10.0, before.TaxRate)

	w := doRequest(t, r, http.MethodPut, "/api/settings", admin, map[string]interface{}{
		"tax_rate": 20,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Existing order keeps the old rate; a new one picks up the new.
	same := openOrderForTable(t, r, waiter, 8)
	assert.Equal(t, before.ID, same.ID)
	assert.Equal(t, 10.0, same.TaxRate)

	fresh := openOrderForTable(t, r, waiter, 9)
	assert.Equal(t, 20.0, fresh.TaxRate)
}
