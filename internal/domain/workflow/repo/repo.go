package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/fluxline/workflow-backend/internal/domain/workflow/model"
)

type WorkflowRepo interface {
	Create(ctx context.Context, w model.Workflow) (uuid.UUID, error)

	GetByID(ctx context.Context, id uuid.UUID) (model.Workflow, error)

	// ListAccessible returns the user's own workflows plus public ones.
	ListAccessible(ctx context.Context, userID uuid.UUID) ([]model.Workflow, error)

	ListPublic(ctx context.Context) ([]model.Workflow, error)

	Update(ctx context.Context, w model.Workflow) error

	Delete(ctx context.Context, id uuid.UUID) error
}
