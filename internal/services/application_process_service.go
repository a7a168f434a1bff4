package services

import (
	"context"
	"strings"

	"abroad/internal/models"
	"abroad/internal/ordering"
	"abroad/internal/tenancy"
	apperrors "abroad/pkg/errors"
	"abroad/pkg/validation"

	"gorm.io/gorm"
)

// CreateApplicationProcessInput 创建申请流程；Order 为空时追加到同级末尾
type CreateApplicationProcessInput struct {
	OrganizationID *uint  `json:"organization_id"`
	ParentID       *uint  `json:"parent_id"`
	Name           string `json:"name" validate:"required,max=100"`
	Description    string `json:"description"`
	Order          *int   `json:"order"`
	IsActive       *bool  `json:"is_active"`
}

// UpdateApplicationProcessInput 部分更新
type UpdateApplicationProcessInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
	IsActive    *bool   `json:"is_active"`
}

// ApplicationProcessFilter 列表过滤条件
type ApplicationProcessFilter struct {
	ParentID *uint
	RootOnly bool   // 只查顶级
	Status   string // 空=全部, active, inactive
}

// ReorderProcessesInput 同级重新排序
type ReorderProcessesInput struct {
	OrganizationID *uint               `json:"organization_id"`
	ParentID       *uint               `json:"parent_id"`
	Positions      []ordering.Position `json:"positions" validate:"required,min=1,dive"`
}

// ApplicationProcessService 申请流程服务
type ApplicationProcessService struct {
	db        *gorm.DB
	orders    *ordering.Manager
	processes *tenancy.Repository[models.ApplicationProcess, *models.ApplicationProcess]
}

// NewApplicationProcessService 创建申请流程服务
func NewApplicationProcessService(db *gorm.DB, orders *ordering.Manager) *ApplicationProcessService {
	return &ApplicationProcessService{
		db:        db,
		orders:    orders,
		processes: tenancy.NewRepository[models.ApplicationProcess](db),
	}
}

// Create 创建申请流程，同级分组为 机构 + 父流程
func (s *ApplicationProcessService) Create(ctx context.Context, tc tenancy.Context, in *CreateApplicationProcessInput) (*models.ApplicationProcess, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	process := &models.ApplicationProcess{
		ParentID:    in.ParentID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		IsActive:    boolValue(in.IsActive, true),
	}
	process.OrganizationID = in.OrganizationID

	// 先确定机构，分组依赖机构
	if err := tenancy.Stamp(db, tc, process); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.processes.Find(db, tc, *in.ParentID)
		if err != nil {
			return nil, notFoundf("父流程 %d", *in.ParentID)
		}
		if !sameOrganization(parent.OrganizationID, process.OrganizationID) {
			return nil, apperrors.NewValidationError("parent_id", "父流程不属于同一机构")
		}
	}

	var err error
	if in.Order != nil {
		process.Order = *in.Order
		err = db.Transaction(func(tx *gorm.DB) error {
			return s.processes.Create(tx, tc, process)
		})
	} else {
		err = s.orders.Append(ctx, s.db, processGroup(process.OrganizationID, process.ParentID), func(tx *gorm.DB, next int) error {
			process.Order = next
			return s.processes.Create(tx, tc, process)
		})
	}
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "application_process", 0, "create", err)
		}
		return nil, err
	}
	return process, nil
}

// GetByID 获取申请流程
func (s *ApplicationProcessService) GetByID(ctx context.Context, tc tenancy.Context, id uint) (*models.ApplicationProcess, error) {
	return s.processes.Find(s.db.WithContext(ctx), tc, id, "Parent")
}

// List 同级列表，按显示顺序
func (s *ApplicationProcessService) List(ctx context.Context, tc tenancy.Context, filter ApplicationProcessFilter) ([]models.ApplicationProcess, error) {
	query := s.processes.Query(s.db.WithContext(ctx), tc)
	switch {
	case filter.ParentID != nil:
		query = query.Where(s.processes.Column("parent_id")+" = ?", *filter.ParentID)
	case filter.RootOnly:
		query = query.Where(s.processes.Column("parent_id") + " IS NULL")
	}
	query, err := applyActiveFilter(query, s.processes.Column("is_active"), filter.Status)
	if err != nil {
		return nil, err
	}

	var items []models.ApplicationProcess
	err = query.Scopes(ordering.Sorted(s.processes.Table())).Find(&items).Error
	return items, err
}

// Tree 树形结构，各级按显示顺序
func (s *ApplicationProcessService) Tree(ctx context.Context, tc tenancy.Context) ([]*models.ApplicationProcessTreeNode, error) {
	items, err := s.List(ctx, tc, ApplicationProcessFilter{})
	if err != nil {
		return nil, err
	}
	return buildProcessTree(items), nil
}

// buildProcessTree 父节点不可见（已删除或其他机构）的流程作为顶级节点
func buildProcessTree(items []models.ApplicationProcess) []*models.ApplicationProcessTreeNode {
	nodes := make(map[uint]*models.ApplicationProcessTreeNode, len(items))
	for i := range items {
		nodes[items[i].ID] = &models.ApplicationProcessTreeNode{ApplicationProcess: &items[i]}
	}

	roots := make([]*models.ApplicationProcessTreeNode, 0)
	for i := range items {
		node := nodes[items[i].ID]
		if items[i].ParentID != nil {
			if parent, ok := nodes[*items[i].ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// Update 部分更新
func (s *ApplicationProcessService) Update(ctx context.Context, tc tenancy.Context, id uint, in *UpdateApplicationProcessInput) (*models.ApplicationProcess, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	process, err := s.processes.Find(db, tc, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Order != nil {
		updates[ordering.Column] = *in.Order
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := db.Model(process).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.processes.Find(db, tc, id)
}

// SetActive 启用/停用
func (s *ApplicationProcessService) SetActive(ctx context.Context, tc tenancy.Context, id uint, active bool) (*models.ApplicationProcess, error) {
	return s.Update(ctx, tc, id, &UpdateApplicationProcessInput{IsActive: &active})
}

// Delete 软删除流程及全部子流程
func (s *ApplicationProcessService) Delete(ctx context.Context, tc tenancy.Context, id uint) error {
	if err := tc.AuthorizeWrite(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		process, err := s.processes.Find(tx, tc, id)
		if err != nil {
			return err
		}

		at := tombstone()
		if err := s.deleteChildrenRecursive(tx, process.ID, at); err != nil {
			return err
		}
		return softDeleteWhere(tx, &models.ApplicationProcess{}, at, "id = ?", process.ID)
	})
	if err != nil && !isDomainError(err) {
		logTxError(tc, "application_process", id, "delete", err)
	}
	return err
}

// deleteChildrenRecursive 递归删除子流程
func (s *ApplicationProcessService) deleteChildrenRecursive(tx *gorm.DB, parentID uint, at interface{}) error {
	var childIDs []uint
	if err := tx.Model(&models.ApplicationProcess{}).Where("parent_id = ?", parentID).Pluck("id", &childIDs).Error; err != nil {
		return err
	}

	for _, childID := range childIDs {
		// 递归删除子流程的子流程
		if err := s.deleteChildrenRecursive(tx, childID, at); err != nil {
			return err
		}
	}

	if len(childIDs) == 0 {
		return nil
	}
	return tx.Model(&models.ApplicationProcess{}).Where("id IN ?", childIDs).Update("deleted_at", at).Error
}

// Reorder 同级重新排序；机构用户的分组固定为本机构
func (s *ApplicationProcessService) Reorder(ctx context.Context, tc tenancy.Context, in *ReorderProcessesInput) (int, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return 0, err
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}

	orgID := in.OrganizationID
	if tc.Actor.IsTenant() {
		orgID = tc.Actor.OrganizationID
	}
	if orgID == nil {
		return 0, apperrors.NewValidationError("organization_id", "平台用户排序时必须指定所属机构")
	}

	var applied int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		applied, err = ordering.Reorder(tx, processGroup(orgID, in.ParentID), in.Positions, ordering.PinNone)
		return err
	})
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "application_process", 0, "reorder", err)
		}
		return 0, err
	}
	return applied, nil
}
