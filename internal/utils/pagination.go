package utils

import (
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	defaultSort     = "created_at"
)

// PaginationParams carries the common list query parameters. Search and
// Category are only honoured by the product catalogue.
type PaginationParams struct {
	Page     int    `form:"page" json:"page"`
	Limit    int    `form:"limit" json:"limit"`
	Sort     string `form:"sort" json:"sort"`
	Order    string `form:"order" json:"order"`
	Search   string `form:"search" json:"search"`
	Category string `form:"category" json:"category"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads list parameters from the query string. Values
// that do not parse are replaced by defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(c.Query(key))
		return n
	}
	return PaginationParams{
		Page:     atoi("page"),
		Limit:    atoi("limit"),
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}.Normalize()
}

// Normalize fills defaults so services can be called without a request.
func (p PaginationParams) Normalize() PaginationParams {
	p.Page = max(p.Page, 1)
	if p.Limit < 1 || p.Limit > MaxPageSize {
		p.Limit = DefaultPageSize
	}
	if p.Sort == "" {
		p.Sort = defaultSort
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
	return p
}

func (p PaginationParams) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Paginate is a gorm scope applying offset and limit.
func Paginate(params PaginationParams) func(*gorm.DB) *gorm.DB {
	params = params.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset()).Limit(params.Limit)
	}
}

// SortBy is a gorm scope ordering by params.Sort when it is one of allowed,
// and by creation time otherwise.
func SortBy(params PaginationParams, allowed []string) func(*gorm.DB) *gorm.DB {
	params = params.Normalize()
	column := params.Sort
	if !slices.Contains(allowed, column) {
		column = defaultSort
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(column + " " + params.Order)
	}
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	params = params.Normalize()
	limit := int64(params.Limit)
	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: int((total + limit - 1) / limit),
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
