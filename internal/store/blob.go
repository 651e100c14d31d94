package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"ramen-house/internal/config"
	"ramen-house/internal/logger"
	"ramen-house/internal/models"
)

// blobClient is the slice of blob-service behaviour the store needs.
// *azblob.Client is wrapped behind it so tests can substitute a fake.
type blobClient interface {
	CreateContainer(ctx context.Context, container string) error
	Upload(ctx context.Context, container, blobName string, data []byte) error
	Download(ctx context.Context, container, blobName string) ([]byte, error)
}

// BlobStore persists one blob per order under orders/<orderId>.json and one
// blob per idempotency key under idempotency/<key>.txt whose payload is the
// raw order id. Writes overwrite; last writer wins.
type BlobStore struct {
	client    blobClient
	container string
	logger    *logger.Logger
}

// NewBlobStore connects to Azure Blob Storage using either a connection
// string or identity-based access, and provisions the orders container.
func NewBlobStore(ctx context.Context, cfg *config.StorageConfig, log *logger.Logger) (*BlobStore, error) {
	var client *azblob.Client
	var err error

	if cfg.AzureConnectionString != "" {
		client, err = azblob.NewClientFromConnectionString(cfg.AzureConnectionString, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("failed to build Azure credential: %w", credErr)
		}
		client, err = azblob.NewClient(cfg.AzureServiceURL(), cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return newBlobStore(ctx, &azureBlobClient{client: client}, cfg.Container, log)
}

func newBlobStore(ctx context.Context, client blobClient, container string, log *logger.Logger) (*BlobStore, error) {
	// Container provisioning is idempotent.
	if err := client.CreateContainer(ctx, container); err != nil {
		if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil, fmt.Errorf("failed to create container %q: %w", container, err)
		}
	}

	return &BlobStore{
		client:    client,
		container: container,
		logger:    log,
	}, nil
}

func orderBlobName(orderID string) string {
	return "orders/" + orderID + ".json"
}

func idempotencyBlobName(key string) string {
	return "idempotency/" + key + ".txt"
}

// GetByID treats every read failure, including a malformed payload, as not
// found. Lookups are best-effort.
func (s *BlobStore) GetByID(ctx context.Context, orderID string) (*models.Order, bool) {
	data, err := s.client.Download(ctx, s.container, orderBlobName(orderID))
	if err != nil {
		return nil, false
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		s.logger.Debug("blob_payload_malformed", "Order blob is not valid JSON", "", map[string]interface{}{
			"order_id": orderID,
		})
		return nil, false
	}

	return &order, true
}

func (s *BlobStore) GetByIdempotencyKey(ctx context.Context, key string) (*models.Order, bool) {
	data, err := s.client.Download(ctx, s.container, idempotencyBlobName(key))
	if err != nil {
		return nil, false
	}

	orderID := strings.TrimSpace(string(data))
	if orderID == "" {
		return nil, false
	}

	return s.GetByID(ctx, orderID)
}

// Save writes the order record first, then the idempotency pointer. A
// failure between the two leaves a retrievable order with no key binding.
func (s *BlobStore) Save(ctx context.Context, order *models.Order, idempotencyKey string) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order %s: %w", order.OrderID, err)
	}

	if err := s.client.Upload(ctx, s.container, orderBlobName(order.OrderID), payload); err != nil {
		return fmt.Errorf("failed to write order blob %s: %w", order.OrderID, err)
	}

	if idempotencyKey != "" {
		if err := s.client.Upload(ctx, s.container, idempotencyBlobName(idempotencyKey), []byte(order.OrderID)); err != nil {
			return fmt.Errorf("failed to write idempotency blob for order %s: %w", order.OrderID, err)
		}
	}

	return nil
}

// azureBlobClient adapts *azblob.Client to the narrow blobClient interface.
type azureBlobClient struct {
	client *azblob.Client
}

func (c *azureBlobClient) CreateContainer(ctx context.Context, container string) error {
	_, err := c.client.CreateContainer(ctx, container, nil)
	return err
}

func (c *azureBlobClient) Upload(ctx context.Context, container, blobName string, data []byte) error {
	_, err := c.client.UploadBuffer(ctx, container, blobName, data, nil)
	return err
}

func (c *azureBlobClient) Download(ctx context.Context, container, blobName string) ([]byte, error) {
	resp, err := c.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
