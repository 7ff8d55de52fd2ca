package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/model"
	"github.com/pageza/recipe-api/backend/internal/testhelpers"
)

func TestRunMigrationsSQLite(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	ctx := context.Background()

	// SetupSQLite already migrated; running again is a no-op.
	require.NoError(t, database.RunMigrations(ctx, db, zap.NewNop()))
	assert.True(t, db.Migrator().HasTable(&model.Recipe{}))
	assert.True(t, db.Migrator().HasTable(&model.Ingredient{}))

	_, err := database.Rollback(ctx, db, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, db.Migrator().HasTable(&model.Recipe{}))
	assert.False(t, db.Migrator().HasTable(&model.Ingredient{}))
}

func TestMigrationsPostgres(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	ctx := context.Background()
	log := zap.NewNop()

	require.NoError(t, database.RunMigrations(ctx, db, log))
	require.NoError(t, database.RunMigrations(ctx, db, log), "migrations must be idempotent")

	status, err := database.Status(ctx, db)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.Equal(t, "0001_create_recipes", status[0].Name)
	assert.Equal(t, "0002_recipe_name_prefix_index", status[1].Name)
	for _, st := range status {
		assert.NotNil(t, st.AppliedAt, st.Name)
	}

	name, err := database.Rollback(ctx, db, log)
	require.NoError(t, err)
	assert.Equal(t, "0002_recipe_name_prefix_index", name)

	name, err = database.Rollback(ctx, db, log)
	require.NoError(t, err)
	assert.Equal(t, "0001_create_recipes", name)
	assert.False(t, db.Migrator().HasTable("recipes"))

	name, err = database.Rollback(ctx, db, log)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestHealthCheck(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	assert.NoError(t, database.HealthCheck(context.Background(), db))
}
