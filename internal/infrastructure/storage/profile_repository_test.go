package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightloop/backend/internal/domain/knowledge"
)

func TestProfileRepository_SaveAndFind(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProfileRepository(db)

	profile := &knowledge.CompanyProfile{
		OrgID:       "org-1",
		CompanyName: "Acme Retail",
		Industry:    "retail",
		TeamSize:    "11-50",
		Mission:     "Help small retailers understand their sales data",
		DataSources: []string{"Shopify", "Stripe"},
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, repo.Save(profile))

	found, err := repo.FindByOrg("org-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Acme Retail", found.CompanyName)
	assert.Equal(t, []string{"Shopify", "Stripe"}, found.DataSources)

	missing, err := repo.FindByOrg("org-unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProfileRepository_SaveFields_CreatesProfile(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProfileRepository(db)

	err := repo.SaveFields("org-1",
		map[string]string{
			"mission":  "Help small retailers understand their sales data",
			"vision":   "Be the default BI tool for small business",
			"industry": "retail",
		},
		map[string][]string{
			"data_sources": {"Shopify", "Stripe"},
		},
	)
	require.NoError(t, err)

	found, err := repo.FindByOrg("org-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "retail", found.Industry)
	assert.Equal(t, "Be the default BI tool for small business", found.Vision)
	assert.Equal(t, []string{"Shopify", "Stripe"}, found.DataSources)
}

func TestProfileRepository_SaveFields_MergesExisting(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProfileRepository(db)

	require.NoError(t, repo.Save(&knowledge.CompanyProfile{
		OrgID:       "org-1",
		CompanyName: "Acme Retail",
		Industry:    "retail",
		UpdatedAt:   time.Now(),
	}))

	err := repo.SaveFields("org-1",
		map[string]string{
			"mission": "New mission statement for the company",
			"unknown": "silently ignored",
		},
		nil,
	)
	require.NoError(t, err)

	found, err := repo.FindByOrg("org-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	// 未提交的字段保持原值
	assert.Equal(t, "Acme Retail", found.CompanyName)
	assert.Equal(t, "retail", found.Industry)
	assert.Equal(t, "New mission statement for the company", found.Mission)
}
