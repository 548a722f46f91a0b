package knowledge

// NoteRepository 知识笔记仓储接口
type NoteRepository interface {
	Save(note *Note) error
	FindByID(id string) (*Note, error)
	ListByOrg(orgID string) ([]*Note, error)
	Delete(id string) error
}

// TicketRepository 工单仓储接口
type TicketRepository interface {
	Save(ticket *Ticket) error
	FindByID(id string) (*Ticket, error)
	ListByOrg(orgID string) ([]*Ticket, error)
	ListOpenByOrg(orgID string) ([]*Ticket, error)
	Delete(id string) error
}

// ProfileRepository 企业画像仓储接口
type ProfileRepository interface {
	Save(profile *CompanyProfile) error
	FindByOrg(orgID string) (*CompanyProfile, error)
	// SaveFields 按字段名批量写入画像字段（流程完成副作用的执行入口）
	SaveFields(orgID string, fields map[string]string, listFields map[string][]string) error
}
