package ordering

import (
	"fmt"

	apperrors "abroad/pkg/errors"

	"gorm.io/gorm"
)

// Position 单条排序更新
type Position struct {
	ID    uint `json:"id" validate:"required"`
	Order *int `json:"order" validate:"required"`
}

// Annotation 单条文本字段更新
type Annotation struct {
	ID    uint   `json:"id" validate:"required"`
	Value string `json:"value"`
}

// PinPolicy 返回 true 的记录保持原位置，重新排序时静默跳过
type PinPolicy func(id uint) bool

// PinNone 不固定任何记录
func PinNone(uint) bool { return false }

// PinIDs 固定指定ID
func PinIDs(ids ...uint) PinPolicy {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(id uint) bool {
		_, ok := set[id]
		return ok
	}
}

// Reorder 逐条应用 (id, order)，返回实际更新的条数
//
// 只更新分组内未删除的记录；order 原样写入，不校验唯一或连续。
func Reorder(tx *gorm.DB, g Group, positions []Position, pinned PinPolicy) (int, error) {
	if pinned == nil {
		pinned = PinNone
	}

	applied := 0
	for i, p := range positions {
		if p.Order == nil {
			return applied, apperrors.NewValidationError(fmt.Sprintf("positions[%d].order", i), "不能为空")
		}
		if pinned(p.ID) {
			continue
		}

		result := g.Apply(fresh(tx).Table(g.Table)).
			Where(g.Table+".id = ?", p.ID).
			Where(g.Table + ".deleted_at IS NULL").
			Updates(touch(map[string]interface{}{Column: *p.Order}))
		if result.Error != nil {
			return applied, result.Error
		}
		applied += int(result.RowsAffected)
	}
	return applied, nil
}

// BulkAnnotate 逐条更新文本字段（如备注），返回实际更新的条数
func BulkAnnotate(tx *gorm.DB, g Group, column string, annotations []Annotation) (int, error) {
	applied := 0
	for _, a := range annotations {
		result := g.Apply(fresh(tx).Table(g.Table)).
			Where(g.Table+".id = ?", a.ID).
			Where(g.Table + ".deleted_at IS NULL").
			Updates(touch(map[string]interface{}{column: a.Value}))
		if result.Error != nil {
			return applied, result.Error
		}
		applied += int(result.RowsAffected)
	}
	return applied, nil
}
