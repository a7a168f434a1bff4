// Package ordering 同级记录的 order 字段维护
package ordering

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Column order 字段的数据库列名（order 是 SQL 关键字）
const Column = "sort_order"

// Condition 分组条件，Value 为空表示 IS NULL（顶级分组）
type Condition struct {
	Column string
	Value  *uint
}

// Group 同级分组：同一张表中分组条件全部相同的记录
type Group struct {
	Table      string
	Conditions []Condition
}

// NewGroup 创建分组
func NewGroup(table string, conditions ...Condition) Group {
	return Group{Table: table, Conditions: conditions}
}

// Eq 分组条件 column = value
func Eq(column string, value uint) Condition {
	return Condition{Column: column, Value: &value}
}

// EqOrNull 分组条件，value 为空时匹配 IS NULL
func EqOrNull(column string, value *uint) Condition {
	if value == nil {
		return Condition{Column: column}
	}
	return Eq(column, *value)
}

// Apply 把分组条件加到查询上（列名带表名，可用于 join 查询）
func (g Group) Apply(db *gorm.DB) *gorm.DB {
	for _, c := range g.Conditions {
		column := g.Table + "." + c.Column
		if c.Value == nil {
			db = db.Where(column + " IS NULL")
		} else {
			db = db.Where(column+" = ?", *c.Value)
		}
	}
	return db
}

// Key 分组的唯一标识，用作锁名
func (g Group) Key() string {
	parts := make([]string, 0, len(g.Conditions))
	for _, c := range g.Conditions {
		if c.Value == nil {
			parts = append(parts, c.Column+"=null")
		} else {
			parts = append(parts, fmt.Sprintf("%s=%d", c.Column, *c.Value))
		}
	}
	sort.Strings(parts)
	return g.Table + ":" + strings.Join(parts, ",")
}

// Sorted 显示顺序：order 升序，order 相同时按 id 升序
func Sorted(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + "." + Column + " ASC").Order(table + ".id ASC")
	}
}
