package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"boxtenant/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Tenant caching
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error
	DeleteTenant(ctx context.Context, tenantID uuid.UUID) error

	// Public directory caching
	GetPublicDirectory(ctx context.Context) ([]*models.TenantSummary, error)
	SetPublicDirectory(ctx context.Context, summaries []*models.TenantSummary, ttl time.Duration) error
	InvalidateDirectory(ctx context.Context) error

	// User tenancy caching
	GetUserTenancies(ctx context.Context, userID uuid.UUID) ([]*models.UserTenancy, error)
	SetUserTenancies(ctx context.Context, userID uuid.UUID, tenancies []*models.UserTenancy, ttl time.Duration) error
	DeleteUserTenancies(ctx context.Context, userID uuid.UUID) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	key := fmt.Sprintf("boxtenant:tenant:%s", tenantID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var tenant models.Tenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *redisCacheService) SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	key := fmt.Sprintf("boxtenant:tenant:%s", tenant.ID.String())
	data, err := json.Marshal(tenant)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteTenant(ctx context.Context, tenantID uuid.UUID) error {
	key := fmt.Sprintf("boxtenant:tenant:%s", tenantID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetPublicDirectory(ctx context.Context) ([]*models.TenantSummary, error) {
	data, err := r.client.Get(ctx, "boxtenant:directory").Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var summaries []*models.TenantSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *redisCacheService) SetPublicDirectory(ctx context.Context, summaries []*models.TenantSummary, ttl time.Duration) error {
	data, err := json.Marshal(summaries)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, "boxtenant:directory", data, ttl).Err()
}

func (r *redisCacheService) InvalidateDirectory(ctx context.Context) error {
	return r.client.Del(ctx, "boxtenant:directory").Err()
}

func (r *redisCacheService) GetUserTenancies(ctx context.Context, userID uuid.UUID) ([]*models.UserTenancy, error) {
	key := fmt.Sprintf("boxtenant:tenancies:%s", userID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var tenancies []*models.UserTenancy
	if err := json.Unmarshal(data, &tenancies); err != nil {
		return nil, err
	}
	return tenancies, nil
}

func (r *redisCacheService) SetUserTenancies(ctx context.Context, userID uuid.UUID, tenancies []*models.UserTenancy, ttl time.Duration) error {
	key := fmt.Sprintf("boxtenant:tenancies:%s", userID.String())
	data, err := json.Marshal(tenancies)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteUserTenancies(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("boxtenant:tenancies:%s", userID.String())
	return r.client.Del(ctx, key).Err()
}
