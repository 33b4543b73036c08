package repository

import (
	"gorm.io/gorm"
)

// 对局记录列表的分页限制
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// BaseRepository 说书人、对局记录与会话快照仓储的公共部分
type BaseRepository interface {
	// GetDB 底层连接，事务中为事务句柄
	GetDB() *gorm.DB
}

// Pagination 对局记录分页，Total由查询回填
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// NewPagination 规整页码与每页条数
func NewPagination(page, pageSize int) *Pagination {
	p := &Pagination{Page: page, PageSize: pageSize}
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset 跳过的条数
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Paginate 作为gorm scope使用
func Paginate(p *Pagination) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.PageSize)
	}
}

// BaseRepo 持有连接的嵌入式实现
type BaseRepo struct {
	db *gorm.DB
}

// NewBaseRepo 包装连接
func NewBaseRepo(db *gorm.DB) *BaseRepo {
	return &BaseRepo{db: db}
}

// GetDB 底层连接
func (r *BaseRepo) GetDB() *gorm.DB {
	return r.db
}
