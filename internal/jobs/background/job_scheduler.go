package background

import (
	"context"
	"log"
	"time"

	"boxtenant/internal/models"
	"boxtenant/internal/repositories"
	"boxtenant/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs the reconciliation backstops: the denormalized
// tenant user_count is periodically recounted from the membership
// table (the authoritative source), and the cached public directory is
// refreshed.
type JobScheduler struct {
	scheduler      gocron.Scheduler
	tenantRepo     repositories.TenantRepository
	membershipRepo repositories.MembershipRepository
	tenantSvc      services.TenantService
	jobs           map[string]gocron.Job
}

func NewJobScheduler(tenantRepo repositories.TenantRepository, membershipRepo repositories.MembershipRepository, tenantSvc services.TenantService) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:      scheduler,
		tenantRepo:     tenantRepo,
		membershipRepo: membershipRepo,
		tenantSvc:      tenantSvc,
		jobs:           make(map[string]gocron.Job),
	}
	js.registerJobs()
	return js, nil
}

func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	countJob, err := js.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(js.reconcileUserCounts, context.Background()),
		gocron.WithName("user-count-reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create user count reconciliation job: %v", err)
	} else {
		js.jobs["user-count-reconcile"] = countJob
	}

	directoryJob, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.refreshDirectory, context.Background()),
		gocron.WithName("directory-refresh"),
	)
	if err != nil {
		log.Printf("Failed to create directory refresh job: %v", err)
	} else {
		js.jobs["directory-refresh"] = directoryJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// reconcileUserCounts pages through all tenants and rewrites any
// user_count that drifted from the membership table.
func (js *JobScheduler) reconcileUserCounts(ctx context.Context) {
	const pageSize = 100
	offset := 0
	fixed := 0
	for {
		tenants, err := js.tenantRepo.List(ctx, pageSize, offset)
		if err != nil {
			log.Printf("reconcile: failed to list tenants: %v", err)
			return
		}
		if len(tenants) == 0 {
			break
		}

		for _, tenant := range tenants {
			if tenant.Status == models.TenantStatusDeleted {
				continue
			}
			actual, err := js.membershipRepo.CountByTenant(ctx, tenant.ID)
			if err != nil {
				log.Printf("reconcile: failed to count memberships for tenant %s: %v", tenant.ID, err)
				continue
			}
			if actual != tenant.UserCount {
				if err := js.tenantRepo.SetUserCount(ctx, tenant.ID, actual); err != nil {
					log.Printf("reconcile: failed to set user count for tenant %s: %v", tenant.ID, err)
					continue
				}
				log.Printf("reconcile: tenant %s user_count %d -> %d", tenant.ID, tenant.UserCount, actual)
				fixed++
			}
		}
		offset += pageSize
	}
	if fixed > 0 {
		log.Printf("reconcile: corrected user_count on %d tenants", fixed)
	}
}

func (js *JobScheduler) refreshDirectory(ctx context.Context) {
	if err := js.tenantSvc.RefreshDirectory(ctx); err != nil {
		log.Printf("directory refresh failed: %v", err)
	}
}
