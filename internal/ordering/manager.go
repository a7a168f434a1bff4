package ordering

import (
	"context"
	"time"

	"abroad/pkg/logger"

	"gorm.io/gorm"
)

// Locker 分组锁，用来串行化同一分组的 "取最大 order + 插入"
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// NopLocker 不加锁（测试、单实例部署）
type NopLocker struct{}

// Lock 立即返回
func (NopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// Manager 同级排序管理
type Manager struct {
	locker Locker
}

// NewManager 创建排序管理器，locker 为空时不加锁
func NewManager(locker Locker) *Manager {
	if locker == nil {
		locker = NopLocker{}
	}
	return &Manager{locker: locker}
}

// fresh 在同一连接（事务）上开始一条新语句
func fresh(tx *gorm.DB) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true})
}

// NextOrder 分组内最大 order + 1，空分组返回 1；不统计已软删除的记录
func NextOrder(tx *gorm.DB, g Group) (int, error) {
	var max int64
	row := g.Apply(fresh(tx).Table(g.Table)).
		Where(g.Table + ".deleted_at IS NULL").
		Select("COALESCE(MAX(" + g.Table + "." + Column + "), 0)").
		Row()
	if err := row.Scan(&max); err != nil {
		return 0, err
	}
	return int(max) + 1, nil
}

// Append 在分组锁内计算 NextOrder 并插入，两步在同一事务中
//
// 锁不可用时记录日志后继续执行：重复的 order 只影响显示顺序。
// db 本身是事务时使用保存点，锁在本函数返回时释放，早于外层事务提交；
// 调用方只应在分组对其他事务尚不可见时这样用（如新建代理国家时预置状态）。
func (m *Manager) Append(ctx context.Context, db *gorm.DB, g Group, insert func(tx *gorm.DB, next int) error) error {
	unlock, err := m.locker.Lock(ctx, g.Key())
	if err != nil {
		logger.GetLogger().WithError(err).WithField("group", g.Key()).
			Warn("Order lock unavailable, appending without serialization")
	} else {
		defer unlock()
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := NextOrder(tx, g)
		if err != nil {
			return err
		}
		return insert(tx, next)
	})
}

// touch 更新时间
func touch(values map[string]interface{}) map[string]interface{} {
	values["updated_at"] = time.Now()
	return values
}
