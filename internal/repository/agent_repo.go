package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
)

// GormAgentRepository implements AgentRepository using GORM.
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GORM agent repository.
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// Create creates a new agent owned by userID.
func (r *GormAgentRepository) Create(ctx context.Context, userID string, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	agent := &domain.Agent{
		UserID:       userID,
		Name:         req.Name,
		Instructions: req.Instructions,
		Voice:        req.Voice,
	}

	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return agent, nil
}

// GetByID retrieves an agent by ID.
func (r *GormAgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).First(&agent, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("agent", id)
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// GetByIDForUser retrieves an agent by ID, scoped to its owner.
func (r *GormAgentRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).First(&agent, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("agent", id)
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// GetByIDs retrieves all agents whose ids appear in the given set.
// Missing ids are skipped, not errors.
func (r *GormAgentRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Agent, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var agents []*domain.Agent
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to get agents by ids: %w", err)
	}
	return agents, nil
}

// GetByUserID retrieves all agents owned by a user, newest first.
func (r *GormAgentRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to get agents by user: %w", err)
	}
	return agents, nil
}

// Update applies the non-nil fields of req to an agent owned by userID.
func (r *GormAgentRepository) Update(ctx context.Context, id, userID string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).First(&agent, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("agent", id)
		}
		return nil, fmt.Errorf("failed to find agent: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Instructions != nil {
		updates["instructions"] = *req.Instructions
	}
	if req.Voice != nil {
		updates["voice"] = *req.Voice
	}

	if len(updates) == 0 {
		return &agent, nil
	}

	if err := r.db.WithContext(ctx).Model(&agent).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}
	return &agent, nil
}

// Delete deletes an agent owned by userID. Referencing meetings are
// removed by the store's cascade rule.
func (r *GormAgentRepository) Delete(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Agent{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete agent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError("agent", id)
	}
	return nil
}
