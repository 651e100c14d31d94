package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramen-house/internal/logger"
	"ramen-house/internal/menu"
	"ramen-house/internal/models"
	"ramen-house/internal/store"
)

const testCatalog = `{
  "menuVersion": "v1",
  "categories": ["ramen", "sides"],
  "items": [
    {"id": "ramen-shoyu", "name": "Shoyu Ramen", "category": "ramen", "basePrice": 850},
    {"id": "ramen-miso", "name": "Miso Ramen", "category": "ramen", "basePrice": 900},
    {"id": "gyoza", "name": "Gyoza", "category": "sides", "basePrice": 450}
  ],
  "constraints": {"openHours": "11:00-21:00", "maxItemsPerOrder": 10, "notes": []}
}`

func testMenuReader(t *testing.T) *menu.Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "menu.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	return menu.NewReader(path)
}

// decodePayload mirrors the handler's body decoding, numbers included.
func decodePayload(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var payload map[string]interface{}
	require.NoError(t, decoder.Decode(&payload))
	return payload
}

type capturePublisher struct {
	published []*models.Order
	err       error
}

func (p *capturePublisher) PublishOrderConfirmed(_ context.Context, order *models.Order) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, order)
	return nil
}

type failingSaveStore struct {
	store.OrderStore
}

func (s *failingSaveStore) Save(context.Context, *models.Order, string) error {
	return errors.New("backend unreachable")
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(testMenuReader(t), store.NewMemoryStore(), nil, logger.New("order-test"))
}

func requireRequestError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, status, reqErr.Status)
	assert.Equal(t, message, reqErr.Message)
}

func TestCreateOrder_PricesFromCatalogSnapshot(t *testing.T) {
	s := newTestService(t)

	payload := decodePayload(t, `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu", "quantity": 2}]}`)
	order, warnings, err := s.CreateOrder(context.Background(), payload, "", "req-1")
	require.NoError(t, err)

	assert.Equal(t, 1700, order.Total)
	assert.Equal(t, models.Currency, order.Currency)
	assert.Equal(t, models.StatusConfirmed, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, models.OrderLine{MenuItemID: "ramen-shoyu", Quantity: 2, LineTotal: 1700}, order.Items[0])
	assert.True(t, strings.HasPrefix(order.OrderID, "ord_"))
	assert.NotNil(t, warnings)
	assert.Empty(t, warnings)

	_, err = time.Parse(time.RFC3339, order.CreatedAt)
	assert.NoError(t, err)
}

func TestCreateOrder_TotalSumsAllLines(t *testing.T) {
	s := newTestService(t)

	payload := decodePayload(t, `{"menuVersion": "v1", "items": [
		{"menuItemId": "ramen-shoyu", "quantity": 2},
		{"menuItemId": "ramen-miso", "quantity": 1},
		{"menuItemId": "gyoza", "quantity": 3}
	]}`)
	order, _, err := s.CreateOrder(context.Background(), payload, "", "req-1")
	require.NoError(t, err)

	assert.Equal(t, 850*2+900+450*3, order.Total)
	require.Len(t, order.Items, 3)
	assert.Equal(t, 1350, order.Items[2].LineTotal)
}

func TestCreateOrder_IdempotentReplayReturnsFirstOrder(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first := decodePayload(t, `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu", "quantity": 2}]}`)
	original, _, err := s.CreateOrder(ctx, first, "key-1", "req-1")
	require.NoError(t, err)

	second := decodePayload(t, `{"menuVersion": "v1", "items": [{"menuItemId": "gyoza", "quantity": 1}]}`)
	replayed, warnings, err := s.CreateOrder(ctx, second, "key-1", "req-2")
	require.NoError(t, err)

	assert.Equal(t, original, replayed)
	assert.Empty(t, warnings)
}

func TestCreateOrder_ReplaySkipsValidationEntirely(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first := decodePayload(t, `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu", "quantity": 1}]}`)
	original, _, err := s.CreateOrder(ctx, first, "key-2", "req-1")
	require.NoError(t, err)

	// Mismatched version and invalid items: a bound key still wins.
	invalid := decodePayload(t, `{"menuVersion": "v999", "items": [{"menuItemId": "nonexistent", "quantity": 0}]}`)
	replayed, _, err := s.CreateOrder(ctx, invalid, "key-2", "req-2")
	require.NoError(t, err)
	assert.Equal(t, original.OrderID, replayed.OrderID)
}

func TestCreateOrder_VersionMismatch(t *testing.T) {
	s := newTestService(t)

	payload := decodePayload(t, `{"menuVersion": "v0", "items": [{"menuItemId": "ramen-shoyu", "quantity": 1}]}`)
	_, _, err := s.CreateOrder(context.Background(), payload, "", "req-1")
	requireRequestError(t, err, 409, "menuVersion mismatch")
}

func TestCreateOrder_VersionMismatchShortCircuitsItemValidation(t *testing.T) {
	s := newTestService(t)

	payload := decodePayload(t, `{"menuVersion": "v0", "items": [{"menuItemId": "nonexistent", "quantity": 0}]}`)
	_, _, err := s.CreateOrder(context.Background(), payload, "", "req-1")
	requireRequestError(t, err, 409, "menuVersion mismatch")
}

func TestCreateOrder_ItemsValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		status  int
		message string
	}{
		{
			name:    "missing items",
			payload: `{"menuVersion": "v1"}`,
			status:  400,
			message: "items must be a non-empty array",
		},
		{
			name:    "empty items",
			payload: `{"menuVersion": "v1", "items": []}`,
			status:  400,
			message: "items must be a non-empty array",
		},
		{
			name:    "items not an array",
			payload: `{"menuVersion": "v1", "items": "ramen"}`,
			status:  400,
			message: "items must be a non-empty array",
		},
		{
			name:    "item not an object",
			payload: `{"menuVersion": "v1", "items": ["ramen-shoyu"]}`,
			status:  400,
			message: "each item must be an object",
		},
		{
			name:    "unknown menuItemId",
			payload: `{"menuVersion": "v1", "items": [{"menuItemId": "nonexistent", "quantity": 1}]}`,
			status:  400,
			message: "invalid menuItemId: nonexistent",
		},
		{
			name:    "missing menuItemId",
			payload: `{"menuVersion": "v1", "items": [{"quantity": 1}]}`,
			status:  400,
			message: "invalid menuItemId: ",
		},
		{
			name:    "zero quantity",
			payload: `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu", "quantity": 0}]}`,
			status:  400,
			message: "quantity must be a positive integer",
		},
		{
			name:    "negative quantity",
			payload: `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu", "quantity": -2}]}`,
			status:  400,
			message: "quantity must be a positive integer",
		},
		{
			name:    "fractional quantity",
			payload: `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu", "quantity": 1.5}]}`,
			status:  400,
			message: "quantity must be a positive integer",
		},
		{
			name:    "string quantity",
			payload: `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu", "quantity": "2"}]}`,
			status:  400,
			message: "quantity must be a positive integer",
		},
		{
			name:    "missing quantity",
			payload: `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu"}]}`,
			status:  400,
			message: "quantity must be a positive integer",
		},
		{
			name:    "invalid line after valid lines still fails",
			payload: `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu", "quantity": 1}, {"menuItemId": "gyoza", "quantity": 0}]}`,
			status:  400,
			message: "quantity must be a positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t)

			_, _, err := s.CreateOrder(context.Background(), decodePayload(t, tt.payload), "", "req-1")
			requireRequestError(t, err, tt.status, tt.message)
		})
	}
}

func TestCreateOrder_SaveFailureIsInternal(t *testing.T) {
	s := NewService(testMenuReader(t), &failingSaveStore{store.NewMemoryStore()}, nil, logger.New("order-test"))

	payload := decodePayload(t, `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu", "quantity": 1}]}`)
	_, _, err := s.CreateOrder(context.Background(), payload, "", "req-1")
	require.Error(t, err)

	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr), "storage failures must not map to a client error")
}

func TestCreateOrder_PublishesConfirmedEvent(t *testing.T) {
	publisher := &capturePublisher{}
	s := NewService(testMenuReader(t), store.NewMemoryStore(), publisher, logger.New("order-test"))

	payload := decodePayload(t, `{"menuVersion": "v1", "items": [{"menuItemId": "gyoza", "quantity": 2}]}`)
	order, _, err := s.CreateOrder(context.Background(), payload, "", "req-1")
	require.NoError(t, err)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, order.OrderID, publisher.published[0].OrderID)
}

func TestCreateOrder_PublishFailureDoesNotFailRequest(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("broker down")}
	s := NewService(testMenuReader(t), store.NewMemoryStore(), publisher, logger.New("order-test"))

	payload := decodePayload(t, `{"menuVersion": "v1", "items": [{"menuItemId": "gyoza", "quantity": 2}]}`)
	order, _, err := s.CreateOrder(context.Background(), payload, "", "req-1")
	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestCreateOrder_OrderIDsAreUnique(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		payload := decodePayload(t, `{"menuVersion": "v1", "items": [{"menuItemId": "gyoza", "quantity": 1}]}`)
		order, _, err := s.CreateOrder(ctx, payload, "", fmt.Sprintf("req-%d", i))
		require.NoError(t, err)
		assert.False(t, seen[order.OrderID], "duplicate order id %s", order.OrderID)
		seen[order.OrderID] = true
	}
}

func TestGetOrder(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	payload := decodePayload(t, `{"menuVersion": "v1", "items": [{"menuItemId": "ramen-shoyu", "quantity": 2}]}`)
	created, _, err := s.CreateOrder(ctx, payload, "", "req-1")
	require.NoError(t, err)

	got, ok := s.GetOrder(ctx, created.OrderID)
	require.True(t, ok)
	assert.Equal(t, created, got)

	_, ok = s.GetOrder(ctx, "ord_never")
	assert.False(t, ok)
}
