package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog_studio_v1_202610/internal/model"
)

func setupAuditDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Brand{}))
	require.NoError(t, RegisterAuditCallbacks(db))
	return db
}

func TestAuditCallbacks_CreateAndUpdate(t *testing.T) {
	db := setupAuditDB(t)

	ctx := WithAuditInfo(context.Background(), 7, "alice")
	brand := &model.Brand{Name: "Acme"}
	require.NoError(t, db.WithContext(ctx).Create(brand).Error)
	assert.Equal(t, int64(7), brand.CreatedBy)
	assert.Equal(t, int64(7), brand.UpdatedBy)

	ctx = WithAuditInfo(context.Background(), 9, "bob")
	brand.Name = "Acme Co"
	brand.UpdatedBy = 0
	require.NoError(t, db.WithContext(ctx).Save(brand).Error)

	var stored model.Brand
	require.NoError(t, db.First(&stored, brand.ID).Error)
	assert.Equal(t, int64(7), stored.CreatedBy)
	assert.Equal(t, int64(9), stored.UpdatedBy)
}

func TestAuditCallbacks_BatchAndAnonymous(t *testing.T) {
	db := setupAuditDB(t)

	ctx := WithAuditInfo(context.Background(), 3, "carol")
	brands := []model.Brand{{Name: "A"}, {Name: "B"}}
	require.NoError(t, db.WithContext(ctx).Create(&brands).Error)
	for _, b := range brands {
		assert.Equal(t, int64(3), b.CreatedBy)
	}

	anon := &model.Brand{Name: "C"}
	require.NoError(t, db.Create(anon).Error)
	assert.Zero(t, anon.CreatedBy)
}

func TestAuditContext(t *testing.T) {
	r := gin.New()
	r.GET("/whoami", func(c *gin.Context) {
		c.Set(ContextKeyUserID, int64(5))
		c.Set(ContextKeyUsername, "dave")
		c.Next()
	}, AuditContext(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": AuditUserID(c.Request.Context())})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.JSONEq(t, `{"user_id":5}`, w.Body.String())
	assert.Zero(t, AuditUserID(context.Background()))
}
