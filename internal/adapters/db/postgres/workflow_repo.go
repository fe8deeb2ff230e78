package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	customErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
	"github.com/fluxline/workflow-backend/internal/domain/workflow/model"
)

type WorkflowRepo struct {
	db *gorm.DB
}

func NewWorkflowRepo(db *gorm.DB) *WorkflowRepo {
	return &WorkflowRepo{db: db}
}

func (p *WorkflowRepo) Create(ctx context.Context, w model.Workflow) (uuid.UUID, error) {
	if err := conn(ctx, p.db).Create(&w).Error; err != nil {
		return uuid.Nil, customErrors.WrapInternal(err, "CreateWorkflow")
	}
	return w.ID, nil
}

func (p *WorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Workflow, error) {
	var w model.Workflow
	res := conn(ctx, p.db).Where("id = ?", id).First(&w)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Workflow{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Workflow{}, customErrors.WrapInternal(err, "GetWorkflow")
	}
	return w, nil
}

func (p *WorkflowRepo) ListAccessible(ctx context.Context, userID uuid.UUID) ([]model.Workflow, error) {
	var ws []model.Workflow
	res := conn(ctx, p.db).
		Where("owner_id = ? OR is_public = ?", userID, true).
		Order("updated_at DESC").
		Find(&ws)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "ListAccessible")
	}
	return ws, nil
}

func (p *WorkflowRepo) ListPublic(ctx context.Context) ([]model.Workflow, error) {
	var ws []model.Workflow
	res := conn(ctx, p.db).
		Where("is_public = ?", true).
		Order("updated_at DESC").
		Find(&ws)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "ListPublic")
	}
	return ws, nil
}

func (p *WorkflowRepo) Update(ctx context.Context, w model.Workflow) error {
	res := conn(ctx, p.db).Save(&w)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "UpdateWorkflow")
	}
	return nil
}

func (p *WorkflowRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, p.db).Delete(&model.Workflow{}, "id = ?", id)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteWorkflow")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}
