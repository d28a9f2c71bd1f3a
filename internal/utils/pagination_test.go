package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDryRunDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{DryRun: true})
	require.NoError(t, err)
	return db
}

func TestGetPaginationParamsDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=0&limit=500&order=sideways", nil)

	p := GetPaginationParams(c)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, "desc", p.Order)
	assert.Equal(t, "created_at", p.Sort)
}

func TestCreatePaginationResult(t *testing.T) {
	r := CreatePaginationResult([]int{1, 2}, 41, PaginationParams{Page: 2, Limit: 20})
	assert.Equal(t, 3, r.TotalPages)
	assert.Equal(t, int64(41), r.Total)
}

func TestPaginationScopes(t *testing.T) {
	p := PaginationParams{Page: 3, Limit: 10, Sort: "name; DROP TABLE users", Order: "asc"}
	assert.Equal(t, 20, p.Offset())

	db := testDryRunDB(t)
	var rows []struct{ ID int }
	stmt := db.Table("products").Scopes(SortBy(p, []string{"name"}), Paginate(p)).Find(&rows).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, "ORDER BY created_at asc")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Contains(t, sql, "OFFSET 20")
}
