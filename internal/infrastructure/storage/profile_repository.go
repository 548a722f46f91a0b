package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/insightloop/backend/internal/domain/knowledge"
)

// profileRepository 企业画像 SQLite 仓储实现
type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository 创建企业画像仓储实例
func NewProfileRepository(db *sql.DB) knowledge.ProfileRepository {
	if err := initProfileTable(db); err != nil {
		fmt.Printf("failed to init profile table: %v\n", err)
	}
	return &profileRepository{db: db}
}

// initProfileTable 初始化企业画像表
func initProfileTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS profiles (
		org_id TEXT PRIMARY KEY,
		company_name TEXT NOT NULL DEFAULT '',
		contact_name TEXT NOT NULL DEFAULT '',
		contact_role TEXT NOT NULL DEFAULT '',
		industry TEXT NOT NULL DEFAULT '',
		team_size TEXT NOT NULL DEFAULT '',
		mission TEXT NOT NULL DEFAULT '',
		vision TEXT NOT NULL DEFAULT '',
		data_sources TEXT NOT NULL DEFAULT '[]',
		updated_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}
	return nil
}

// Save 保存企业画像
func (r *profileRepository) Save(profile *knowledge.CompanyProfile) error {
	dataSourcesJSON, err := json.Marshal(profile.DataSources)
	if err != nil {
		return fmt.Errorf("failed to marshal data sources: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO profiles
		(org_id, company_name, contact_name, contact_role, industry, team_size, mission, vision, data_sources, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		profile.OrgID,
		profile.CompanyName,
		profile.ContactName,
		profile.ContactRole,
		profile.Industry,
		profile.TeamSize,
		profile.Mission,
		profile.Vision,
		string(dataSourcesJSON),
		profile.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// FindByOrg 查找组织的企业画像
func (r *profileRepository) FindByOrg(orgID string) (*knowledge.CompanyProfile, error) {
	query := `
		SELECT org_id, company_name, contact_name, contact_role, industry, team_size, mission, vision, data_sources, updated_at
		FROM profiles
		WHERE org_id = ?`

	var profile knowledge.CompanyProfile
	var dataSourcesJSON string
	var updatedAt int64

	err := r.db.QueryRow(query, orgID).Scan(
		&profile.OrgID,
		&profile.CompanyName,
		&profile.ContactName,
		&profile.ContactRole,
		&profile.Industry,
		&profile.TeamSize,
		&profile.Mission,
		&profile.Vision,
		&dataSourcesJSON,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	if dataSourcesJSON != "" {
		if err := json.Unmarshal([]byte(dataSourcesJSON), &profile.DataSources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data sources: %w", err)
		}
	}
	profile.UpdatedAt = time.UnixMilli(updatedAt)
	return &profile, nil
}

// SaveFields 按字段名批量写入画像字段
// 未识别的字段名静默忽略，已有字段不在入参时保持原值
func (r *profileRepository) SaveFields(orgID string, fields map[string]string, listFields map[string][]string) error {
	profile, err := r.FindByOrg(orgID)
	if err != nil {
		return err
	}
	if profile == nil {
		profile = &knowledge.CompanyProfile{OrgID: orgID}
	}

	for name, value := range fields {
		switch name {
		case "company_name":
			profile.CompanyName = value
		case "contact_name":
			profile.ContactName = value
		case "contact_role":
			profile.ContactRole = value
		case "industry":
			profile.Industry = value
		case "team_size":
			profile.TeamSize = value
		case "mission":
			profile.Mission = value
		case "vision":
			profile.Vision = value
		}
	}
	for name, values := range listFields {
		if name == "data_sources" {
			profile.DataSources = values
		}
	}

	profile.UpdatedAt = time.Now()
	return r.Save(profile)
}

// 编译时检查接口实现
var _ knowledge.ProfileRepository = (*profileRepository)(nil)
