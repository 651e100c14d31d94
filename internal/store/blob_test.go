package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramen-house/internal/logger"
	"ramen-house/internal/models"
)

// fakeBlobClient keeps blobs in a map keyed by container + "/" + blob name.
type fakeBlobClient struct {
	blobs       map[string][]byte
	created     []string
	createErr   error
	uploadErr   error
	downloadErr error
}

func newFakeBlobClient() *fakeBlobClient {
	return &fakeBlobClient{blobs: make(map[string][]byte)}
}

func (f *fakeBlobClient) CreateContainer(_ context.Context, container string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, container)
	return nil
}

func (f *fakeBlobClient) Upload(_ context.Context, container, blobName string, data []byte) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.blobs[container+"/"+blobName] = data
	return nil
}

func (f *fakeBlobClient) Download(_ context.Context, container, blobName string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data, ok := f.blobs[container+"/"+blobName]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

func newTestBlobStore(t *testing.T, client blobClient) *BlobStore {
	t.Helper()
	s, err := newBlobStore(context.Background(), client, "orders", logger.New("store-test"))
	require.NoError(t, err)
	return s
}

func TestNewBlobStore_ProvisionsContainer(t *testing.T) {
	client := newFakeBlobClient()
	newTestBlobStore(t, client)

	assert.Equal(t, []string{"orders"}, client.created)
}

func TestNewBlobStore_ContainerAlreadyExistsIgnored(t *testing.T) {
	client := newFakeBlobClient()
	client.createErr = &azcore.ResponseError{ErrorCode: string(bloberror.ContainerAlreadyExists)}

	_, err := newBlobStore(context.Background(), client, "orders", logger.New("store-test"))
	assert.NoError(t, err)
}

func TestNewBlobStore_CreateFailure(t *testing.T) {
	client := newFakeBlobClient()
	client.createErr = errors.New("service unavailable")

	_, err := newBlobStore(context.Background(), client, "orders", logger.New("store-test"))
	assert.Error(t, err)
}

func TestBlobStore_SaveWritesOrderAndPointer(t *testing.T) {
	client := newFakeBlobClient()
	s := newTestBlobStore(t, client)
	ctx := context.Background()

	order := testOrder("ord_aaaa1111", 1700)
	require.NoError(t, s.Save(ctx, order, "key-1"))

	payload, ok := client.blobs["orders/orders/ord_aaaa1111.json"]
	require.True(t, ok, "order blob should exist")

	var stored models.Order
	require.NoError(t, json.Unmarshal(payload, &stored))
	assert.Equal(t, *order, stored)

	pointer, ok := client.blobs["orders/idempotency/key-1.txt"]
	require.True(t, ok, "idempotency blob should exist")
	assert.Equal(t, "ord_aaaa1111", string(pointer))
}

func TestBlobStore_SaveWithoutKeySkipsPointer(t *testing.T) {
	client := newFakeBlobClient()
	s := newTestBlobStore(t, client)

	require.NoError(t, s.Save(context.Background(), testOrder("ord_bbbb2222", 850), ""))

	assert.Len(t, client.blobs, 1)
}

func TestBlobStore_SaveFailurePropagates(t *testing.T) {
	client := newFakeBlobClient()
	s := newTestBlobStore(t, client)
	client.uploadErr = errors.New("write throttled")

	err := s.Save(context.Background(), testOrder("ord_cccc3333", 850), "key-1")
	assert.Error(t, err)
}

func TestBlobStore_GetByID_RoundTrip(t *testing.T) {
	client := newFakeBlobClient()
	s := newTestBlobStore(t, client)
	ctx := context.Background()

	order := testOrder("ord_dddd4444", 1700)
	require.NoError(t, s.Save(ctx, order, ""))

	got, ok := s.GetByID(ctx, "ord_dddd4444")
	require.True(t, ok)
	assert.Equal(t, order, got)
}

func TestBlobStore_GetByID_ReadFailureIsNotFound(t *testing.T) {
	client := newFakeBlobClient()
	s := newTestBlobStore(t, client)
	client.downloadErr = errors.New("network timeout")

	_, ok := s.GetByID(context.Background(), "ord_eeee5555")
	assert.False(t, ok)
}

func TestBlobStore_GetByID_MalformedPayloadIsNotFound(t *testing.T) {
	client := newFakeBlobClient()
	s := newTestBlobStore(t, client)
	client.blobs["orders/orders/ord_ffff6666.json"] = []byte("not json")

	_, ok := s.GetByID(context.Background(), "ord_ffff6666")
	assert.False(t, ok)
}

func TestBlobStore_GetByIdempotencyKey(t *testing.T) {
	client := newFakeBlobClient()
	s := newTestBlobStore(t, client)
	ctx := context.Background()

	order := testOrder("ord_1234abcd", 850)
	require.NoError(t, s.Save(ctx, order, "key-9"))

	got, ok := s.GetByIdempotencyKey(ctx, "key-9")
	require.True(t, ok)
	assert.Equal(t, "ord_1234abcd", got.OrderID)

	_, ok = s.GetByIdempotencyKey(ctx, "unknown-key")
	assert.False(t, ok)
}

func TestBlobStore_GetByIdempotencyKey_EmptyPointerIsNotFound(t *testing.T) {
	client := newFakeBlobClient()
	s := newTestBlobStore(t, client)
	client.blobs["orders/idempotency/key-empty.txt"] = []byte("  \n")

	_, ok := s.GetByIdempotencyKey(context.Background(), "key-empty")
	assert.False(t, ok)
}
