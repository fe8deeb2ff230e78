package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/fluxline/workflow-backend/internal/adapters/transport/http/dto"
	customErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
	"github.com/fluxline/workflow-backend/internal/domain/workflow/model"
	"github.com/fluxline/workflow-backend/internal/domain/workflow/repo"
)

const defaultVersion = "1.0.0"

type workflowService struct {
	workflowRepo repo.WorkflowRepo
	v            *validator.Validate
}

type Service interface {
	Create(ctx context.Context, in dto.WorkflowCreateDTO, ownerID uuid.UUID) (model.Workflow, error)
	Get(ctx context.Context, id uuid.UUID) (model.Workflow, error)
	// List returns the user's workflows plus public ones; uuid.Nil lists
	// public workflows only.
	List(ctx context.Context, userID uuid.UUID) ([]model.Workflow, error)
	Update(ctx context.Context, id uuid.UUID, in dto.WorkflowCreateDTO) (model.Workflow, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func New(wr repo.WorkflowRepo, v *validator.Validate) Service {
	return &workflowService{workflowRepo: wr, v: v}
}

func (s *workflowService) Create(ctx context.Context, in dto.WorkflowCreateDTO, ownerID uuid.UUID) (model.Workflow, error) {
	if err := s.validate(in); err != nil {
		return model.Workflow{}, err
	}

	now := time.Now()
	w := model.Workflow{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Version:     orDefault(in.Version, defaultVersion),
		OwnerID:     ownerID,
		IsPublic:    false,
		IsTemplate:  false,
		Definition:  definitionOrEmpty(in.Definition),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.workflowRepo.Create(ctx, w); err != nil {
		return model.Workflow{}, customErrors.WrapInternal(err, "CreateWorkflow")
	}
	return w, nil
}

func (s *workflowService) Get(ctx context.Context, id uuid.UUID) (model.Workflow, error) {
	w, err := s.workflowRepo.GetByID(ctx, id)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Workflow{}, customErrors.NewNotFound("workflow " + id.String())
	case err != nil:
		return model.Workflow{}, customErrors.WrapInternal(err, "GetWorkflow")
	}
	return w, nil
}

func (s *workflowService) List(ctx context.Context, userID uuid.UUID) ([]model.Workflow, error) {
	var (
		ws  []model.Workflow
		err error
	)
	if userID == uuid.Nil {
		ws, err = s.workflowRepo.ListPublic(ctx)
	} else {
		ws, err = s.workflowRepo.ListAccessible(ctx, userID)
	}
	if err != nil {
		return nil, customErrors.WrapInternal(err, "ListWorkflows")
	}
	return ws, nil
}

func (s *workflowService) Update(ctx context.Context, id uuid.UUID, in dto.WorkflowCreateDTO) (model.Workflow, error) {
	if err := s.validate(in); err != nil {
		return model.Workflow{}, err
	}

	w, err := s.workflowRepo.GetByID(ctx, id)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Workflow{}, customErrors.NewNotFound("workflow " + id.String())
	case err != nil:
		return model.Workflow{}, customErrors.WrapInternal(err, "UpdateWorkflow")
	}

	w.Name = in.Name
	w.Description = in.Description
	w.Version = orDefault(in.Version, w.Version)
	if len(in.Definition) > 0 {
		w.Definition = datatypes.JSON(in.Definition)
	}
	w.UpdatedAt = time.Now()

	if err := s.workflowRepo.Update(ctx, w); err != nil {
		return model.Workflow{}, customErrors.WrapInternal(err, "UpdateWorkflow")
	}
	return w, nil
}

func (s *workflowService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.workflowRepo.Delete(ctx, id)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.NewNotFound("workflow " + id.String())
	case err != nil:
		return customErrors.WrapInternal(err, "DeleteWorkflow")
	}
	return nil
}

func (s *workflowService) validate(in dto.WorkflowCreateDTO) error {
	err := s.v.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		if fe.Tag() == "required" {
			return customErrors.NewInvalidArgument(strings.ToLower(fe.Field()) + " is required")
		}
		return customErrors.NewInvalidArgument(strings.ToLower(fe.Field()) + " is invalid")
	}
	return customErrors.NewInvalidArgument(err.Error())
}

func orDefault(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func definitionOrEmpty(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}
