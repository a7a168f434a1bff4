package pagination

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 分页配置
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageParams 分页参数，page_size 缺省时兼容 per_page
type PageParams struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
	PerPage  int `form:"per_page"`
}

// PageInfo 分页信息
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ParsePageParams 从查询串解析分页参数；非法值回落到默认值
func ParsePageParams(c *gin.Context) *PageParams {
	var params PageParams
	// 绑定失败（如 page=abc）时逐字段回落默认值
	_ = c.ShouldBindQuery(&params)
	return params.normalize()
}

func (p *PageParams) normalize() *PageParams {
	if p.PageSize == 0 {
		p.PageSize = p.PerPage
	}
	p.PerPage = 0
	p.Page, p.PageSize = Clamp(p.Page, p.PageSize)
	return p
}

// Clamp 规范化页码与每页条数
func Clamp(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Paginate GORM 分页 scope，服务层传入的页码同样经过规范化
func Paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	page, pageSize = Clamp(page, pageSize)
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// NewPageInfo 计算分页信息
func NewPageInfo(page, pageSize int, total int64) *PageInfo {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return &PageInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
