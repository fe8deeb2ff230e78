package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fluxline/workflow-backend/internal/adapters/transport/http/dto"
	wfsvc "github.com/fluxline/workflow-backend/internal/app/workflow/service"
	authErrors "github.com/fluxline/workflow-backend/internal/domain/auth/errors"
	"github.com/fluxline/workflow-backend/internal/domain/workflow/model"
)

type workflowRepoStub struct{ rows map[uuid.UUID]model.Workflow }

func (r *workflowRepoStub) Create(_ context.Context, w model.Workflow) (uuid.UUID, error) {
	r.rows[w.ID] = w
	return w.ID, nil
}
func (r *workflowRepoStub) GetByID(_ context.Context, id uuid.UUID) (model.Workflow, error) {
	w, ok := r.rows[id]
	if !ok {
		return model.Workflow{}, authErrors.ErrNotFound
	}
	return w, nil
}
func (r *workflowRepoStub) ListAccessible(_ context.Context, userID uuid.UUID) ([]model.Workflow, error) {
	var out []model.Workflow
	for _, w := range r.rows {
		if w.OwnerID == userID || w.IsPublic {
			out = append(out, w)
		}
	}
	return out, nil
}
func (r *workflowRepoStub) ListPublic(_ context.Context) ([]model.Workflow, error) {
	var out []model.Workflow
	for _, w := range r.rows {
		if w.IsPublic {
			out = append(out, w)
		}
	}
	return out, nil
}
func (r *workflowRepoStub) Update(_ context.Context, w model.Workflow) error {
	if _, ok := r.rows[w.ID]; !ok {
		return authErrors.ErrNotFound
	}
	r.rows[w.ID] = w
	return nil
}
func (r *workflowRepoStub) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.rows[id]; !ok {
		return authErrors.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func newSvc() (wfsvc.Service, *workflowRepoStub) {
	repo := &workflowRepoStub{rows: make(map[uuid.UUID]model.Workflow)}
	return wfsvc.New(repo, validator.New()), repo
}

func TestWorkflowService_CreateDefaults(t *testing.T) {
	svc, _ := newSvc()
	owner := uuid.New()

	w, err := svc.Create(context.Background(), dto.WorkflowCreateDTO{Name: "etl"}, owner)
	require.NoError(t, err)
	require.Equal(t, "1.0.0", w.Version)
	require.Equal(t, owner, w.OwnerID)
	require.False(t, w.IsPublic)
	require.JSONEq(t, "{}", string(w.Definition))
}

func TestWorkflowService_CreateValidation(t *testing.T) {
	svc, _ := newSvc()

	_, err := svc.Create(context.Background(), dto.WorkflowCreateDTO{}, uuid.New())
	require.True(t, authErrors.IsInvalidArgument(err))
	require.Contains(t, err.Error(), "name is required")
}

func TestWorkflowService_GetNotFound(t *testing.T) {
	svc, _ := newSvc()

	_, err := svc.Get(context.Background(), uuid.New())
	require.True(t, authErrors.IsNotFound(err))
}

func TestWorkflowService_UpdatePreservesDefinitionWhenOmitted(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	def := json.RawMessage(`{"nodes":[{"id":"n1"}]}`)
	w, err := svc.Create(ctx, dto.WorkflowCreateDTO{Name: "etl", Definition: def}, uuid.New())
	require.NoError(t, err)

	got, err := svc.Update(ctx, w.ID, dto.WorkflowCreateDTO{Name: "etl-renamed"})
	require.NoError(t, err)
	require.Equal(t, "etl-renamed", got.Name)
	require.JSONEq(t, string(def), string(got.Definition))
	require.Equal(t, w.Version, got.Version)
}

func TestWorkflowService_ListScoping(t *testing.T) {
	svc, repo := newSvc()
	ctx := context.Background()
	owner := uuid.New()

	mine, err := svc.Create(ctx, dto.WorkflowCreateDTO{Name: "mine"}, owner)
	require.NoError(t, err)
	other, err := svc.Create(ctx, dto.WorkflowCreateDTO{Name: "other"}, uuid.New())
	require.NoError(t, err)

	// publish the other user's workflow
	w := repo.rows[other.ID]
	w.IsPublic = true
	repo.rows[other.ID] = w

	ws, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, ws, 2)
	ids := []uuid.UUID{ws[0].ID, ws[1].ID}
	require.Contains(t, ids, mine.ID)
	require.Contains(t, ids, other.ID)

	ws, err = svc.List(ctx, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	require.Equal(t, other.ID, ws[0].ID)
}

func TestWorkflowService_Delete(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	w, err := svc.Create(ctx, dto.WorkflowCreateDTO{Name: "gone"}, uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, w.ID))
	require.True(t, authErrors.IsNotFound(svc.Delete(ctx, w.ID)))
}
