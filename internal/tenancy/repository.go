package tenancy

import (
	"errors"

	apperrors "abroad/pkg/errors"

	"gorm.io/gorm"
)

// Repository 机构隔离表的通用访问层
//
// 读取一律经过 Scope，创建一律经过 Stamp；服务层不直接查询这些表。
type Repository[T any, PT interface {
	*T
	Owned
}] struct {
	table string
}

// NewRepository 为模型 T 创建访问层
func NewRepository[T any, PT interface {
	*T
	Owned
}](db *gorm.DB) *Repository[T, PT] {
	return &Repository[T, PT]{table: tableOf[T](db)}
}

func tableOf[T any](db *gorm.DB) string {
	var zero T
	if t, ok := any(&zero).(interface{ TableName() string }); ok {
		return t.TableName()
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(&zero); err != nil {
		panic(err)
	}
	return stmt.Schema.Table
}

// Table 表名
func (r *Repository[T, PT]) Table() string {
	return r.table
}

// Column 带表名的列
func (r *Repository[T, PT]) Column(name string) string {
	return r.table + "." + name
}

// Query 已应用机构过滤的查询
func (r *Repository[T, PT]) Query(tx *gorm.DB, tc Context) *gorm.DB {
	return tx.Model(new(T)).Scopes(Scope(tc.Actor, r.Column("organization_id")))
}

// QueryWithTrashed 包含软删除记录的查询，依然应用机构过滤
func (r *Repository[T, PT]) QueryWithTrashed(tx *gorm.DB, tc Context) *gorm.DB {
	return r.Query(tx.Unscoped(), tc)
}

// Find 按ID查询；不存在与不在本机构范围内一样返回 ErrNotFound
func (r *Repository[T, PT]) Find(tx *gorm.DB, tc Context, id uint, preloads ...string) (PT, error) {
	query := r.Query(tx, tc)
	for _, p := range preloads {
		query = query.Preload(p)
	}

	entity := PT(new(T))
	if err := query.First(entity, id).Error; err != nil {
		return nil, NotFound(err)
	}
	return entity, nil
}

// FindMany 按ID批量查询，只返回本机构范围内的记录
func (r *Repository[T, PT]) FindMany(tx *gorm.DB, tc Context, ids []uint) ([]T, error) {
	var items []T
	if len(ids) == 0 {
		return items, nil
	}
	err := r.Query(tx, tc).Where(r.Column("id")+" IN ?", ids).Find(&items).Error
	return items, err
}

// Create 设置机构归属后创建
func (r *Repository[T, PT]) Create(tx *gorm.DB, tc Context, entity PT) error {
	if err := Stamp(tx, tc, entity); err != nil {
		return err
	}
	return tx.Create(entity).Error
}

// NotFound 把 gorm 的记录不存在转换为领域错误
func NotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}
