// Package services holds the lifecycle controller: every state transition of
// projects, file records, staging files and deployment logs goes through it.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/converter"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/deploy"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

const defaultConversionTimeout = 2 * time.Minute

type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.MigrationProject) error
	GetProject(ctx context.Context, userID, projectID uuid.UUID) (*models.MigrationProject, error)
	GetLatestProject(ctx context.Context, userID uuid.UUID) (*models.MigrationProject, error)
	ListProjects(ctx context.Context, userID uuid.UUID) ([]models.MigrationProject, error)
	RenameProject(ctx context.Context, userID, projectID uuid.UUID, name string) (*models.MigrationProject, error)
	DeleteProject(ctx context.Context, userID, projectID uuid.UUID) error
}

type FileStore interface {
	CreateFile(ctx context.Context, userID uuid.UUID, f *models.FileRecord) error
	GetFile(ctx context.Context, userID, fileID uuid.UUID) (*models.FileRecord, error)
	FindPendingFileByName(ctx context.Context, userID, projectID uuid.UUID, fileName string) (*models.FileRecord, error)
	ListFiles(ctx context.Context, userID, projectID uuid.UUID) ([]models.FileRecord, error)
	ListAllFiles(ctx context.Context, userID uuid.UUID) ([]models.FileRecord, error)
	UpdateFileState(ctx context.Context, userID uuid.UUID, f *models.FileRecord) error
	UpdateFileStates(ctx context.Context, userID uuid.UUID, files []*models.FileRecord) error
	DeleteFile(ctx context.Context, userID, fileID uuid.UUID) error
}

type UnreviewedStore interface {
	CreateUnreviewed(ctx context.Context, u *models.UnreviewedFile) error
	GetUnreviewed(ctx context.Context, userID, id uuid.UUID) (*models.UnreviewedFile, error)
	ListUnreviewed(ctx context.Context, userID uuid.UUID, filter models.UnreviewedFilter) ([]models.UnreviewedFile, error)
	UpdateUnreviewed(ctx context.Context, u *models.UnreviewedFile) error
	DeleteUnreviewed(ctx context.Context, userID, id uuid.UUID) error
	PromoteUnreviewed(ctx context.Context, userID, unreviewedID uuid.UUID, f *models.FileRecord) error
}

type DeploymentStore interface {
	CreateDeploymentLog(ctx context.Context, log *models.DeploymentLog) error
	CompleteDeployment(ctx context.Context, log *models.DeploymentLog, files []*models.FileRecord) error
	ListDeploymentLogs(ctx context.Context, userID uuid.UUID) ([]models.DeploymentLog, error)
}

// Store is everything the controller persists. *database.DB implements it.
type Store interface {
	ProjectStore
	FileStore
	UnreviewedStore
	DeploymentStore
	ClearHistory(ctx context.Context, userID uuid.UUID) error
}

// EventPublisher announces lifecycle transitions to subscribed clients.
type EventPublisher interface {
	Publish(ctx context.Context, event models.LifecycleEvent) error
}

// Archiver keeps exported files in object storage.
type Archiver interface {
	Archive(ctx context.Context, userID, projectID uuid.UUID, fileName string, content []byte) (string, error)
	RemoveProject(ctx context.Context, userID, projectID uuid.UUID) error
}

type Options struct {
	// Deployer is nil when no deployment target is configured.
	Deployer          deploy.Deployer
	Events            EventPublisher
	Archiver          Archiver
	ConversionTimeout time.Duration
	Now               func() time.Time
}

type Controller struct {
	store     Store
	converter converter.Converter
	deployer  deploy.Deployer
	events    EventPublisher
	archiver  Archiver
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewController(store Store, conv converter.Converter, logger *zap.Logger, opts Options) *Controller {
	c := &Controller{
		store:     store,
		converter: conv,
		deployer:  opts.Deployer,
		events:    opts.Events,
		archiver:  opts.Archiver,
		timeout:   opts.ConversionTimeout,
		now:       opts.Now,
		logger:    logger.Named("lifecycle"),
	}
	if c.events == nil {
		c.events = noopPublisher{}
	}
	if c.timeout <= 0 {
		c.timeout = defaultConversionTimeout
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	return c
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperrors.ErrAuthRequired
	}
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, models.LifecycleEvent) error { return nil }

// publish never fails the operation that triggered it.
func (c *Controller) publish(ctx context.Context, userID uuid.UUID, entity models.EventEntity, id uuid.UUID, event string, payload map[string]any) {
	err := c.events.Publish(ctx, models.LifecycleEvent{
		UserID:   userID,
		Entity:   entity,
		EntityID: id,
		Event:    event,
		Payload:  payload,
	})
	if err != nil {
		c.logger.Warn("Failed to publish lifecycle event",
			zap.String("entity", string(entity)),
			zap.String("entity_id", id.String()),
			zap.String("event", event),
			zap.Error(err))
	}
}
