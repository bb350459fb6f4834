package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const logoBucket = "tenant-logos"

// StorageService stores tenant branding assets in object storage.
type StorageService interface {
	UploadTenantLogo(ctx context.Context, tenantID uuid.UUID, reader io.Reader, size int64, contentType string) (string, error)
	GetLogoURL(tenantID uuid.UUID, expiry time.Duration) (string, error)
	DeleteTenantLogo(ctx context.Context, tenantID uuid.UUID) error
	EnsureBucketExists(ctx context.Context) error
}

type minioStorage struct {
	client *minio.Client
}

func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStorage{client: client}, nil
}

func logoObjectName(tenantID uuid.UUID) string {
	return fmt.Sprintf("%s/logo", tenantID.String())
}

func (m *minioStorage) UploadTenantLogo(ctx context.Context, tenantID uuid.UUID, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := logoObjectName(tenantID)
	_, err := m.client.PutObject(ctx, logoBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return m.GetLogoURL(tenantID, 7*24*time.Hour)
}

func (m *minioStorage) GetLogoURL(tenantID uuid.UUID, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(context.Background(), logoBucket, logoObjectName(tenantID), expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioStorage) DeleteTenantLogo(ctx context.Context, tenantID uuid.UUID) error {
	return m.client.RemoveObject(ctx, logoBucket, logoObjectName(tenantID), minio.RemoveObjectOptions{})
}

func (m *minioStorage) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, logoBucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, logoBucket, minio.MakeBucketOptions{})
	}
	return nil
}
