package projection

import (
	"time"

	"abroad/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// CountryInfo 国家信息
type CountryInfo struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// RepresentingCountryResource 代理国家响应结构
type RepresentingCountryResource struct {
	ID                  uint         `json:"id"`
	OrganizationID      *uint        `json:"organization_id,omitempty"`
	CountryID           uint         `json:"country_id"`
	Country             *CountryInfo `json:"country,omitempty"`
	MonthlyLivingCost   *float64     `json:"monthly_living_cost"`
	Currency            string       `json:"currency"`
	VisaRequirements    string       `json:"visa_requirements"`
	PartTimeWorkDetails string       `json:"part_time_work_details"`
	CountryBenefits     string       `json:"country_benefits"`
	IsActive            bool         `json:"is_active"`
	CreatedAt           *string      `json:"created_at,omitempty"`
	UpdatedAt           *string      `json:"updated_at,omitempty"`

	Statuses             *[]StatusResource             `json:"statuses,omitempty"`
	ApplicationProcesses *[]ApplicationProcessResource `json:"application_processes,omitempty"`
}

// StatusResource 代理国家状态响应结构
type StatusResource struct {
	ID                    uint    `json:"id"`
	RepresentingCountryID uint    `json:"representing_country_id"`
	StatusName            string  `json:"status_name"`
	CustomName            *string `json:"custom_name"`
	DisplayName           string  `json:"display_name"`
	Notes                 *string `json:"notes,omitempty"`
	Order                 int     `json:"order"`
	IsActive              bool    `json:"is_active"`
	IsPinned              bool    `json:"is_pinned"`
	CreatedAt             *string `json:"created_at,omitempty"`
	UpdatedAt             *string `json:"updated_at,omitempty"`

	SubStatuses *[]SubStatusResource `json:"sub_statuses,omitempty"`
}

// SubStatusResource 子状态响应结构
type SubStatusResource struct {
	ID                 uint    `json:"id"`
	RepCountryStatusID uint    `json:"rep_country_status_id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Order              int     `json:"order"`
	IsActive           bool    `json:"is_active"`
	CreatedAt          *string `json:"created_at,omitempty"`
	UpdatedAt          *string `json:"updated_at,omitempty"`
}

// ApplicationProcessResource 申请流程响应结构
type ApplicationProcessResource struct {
	ID             uint    `json:"id"`
	OrganizationID *uint   `json:"organization_id,omitempty"`
	ParentID       *uint   `json:"parent_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Order          int     `json:"order"`
	IsActive       bool    `json:"is_active"`
	CreatedAt      *string `json:"created_at,omitempty"`
	UpdatedAt      *string `json:"updated_at,omitempty"`

	Children *[]ApplicationProcessResource `json:"children,omitempty"`
}

// ========== 转换方法 ==========

// RepresentingCountry 转换代理国家；关联数据只在已加载时输出
func RepresentingCountry(rc *models.RepresentingCountry, view View) RepresentingCountryResource {
	res := RepresentingCountryResource{
		ID:                  rc.ID,
		CountryID:           rc.CountryID,
		MonthlyLivingCost:   rc.MonthlyLivingCost,
		Currency:            rc.Currency,
		VisaRequirements:    rc.VisaRequirements,
		PartTimeWorkDetails: rc.PartTimeWorkDetails,
		CountryBenefits:     rc.CountryBenefits,
		IsActive:            rc.IsActive,
	}
	if rc.Country != nil {
		res.Country = &CountryInfo{ID: rc.Country.ID, Name: rc.Country.Name, Code: rc.Country.Code}
	}
	if view == ViewFull {
		res.OrganizationID = rc.OrganizationID
		res.CreatedAt, res.UpdatedAt = formatTime(rc.CreatedAt), formatTime(rc.UpdatedAt)
	}
	if rc.Statuses != nil {
		statuses := Statuses(rc.Statuses, view)
		res.Statuses = &statuses
	}
	if rc.ApplicationProcesses != nil {
		processes := ApplicationProcesses(rc.ApplicationProcesses, view)
		res.ApplicationProcesses = &processes
	}
	return res
}

// RepresentingCountries 批量转换
func RepresentingCountries(items []models.RepresentingCountry, view View) []RepresentingCountryResource {
	out := make([]RepresentingCountryResource, 0, len(items))
	for i := range items {
		out = append(out, RepresentingCountry(&items[i], view))
	}
	return out
}

// Status 转换状态
func Status(st *models.RepCountryStatus, view View) StatusResource {
	res := StatusResource{
		ID:                    st.ID,
		RepresentingCountryID: st.RepresentingCountryID,
		StatusName:            st.StatusName,
		CustomName:            st.CustomName,
		DisplayName:           st.DisplayName(),
		Order:                 st.Order,
		IsActive:              st.IsActive,
		IsPinned:              models.IsPinnedStatusName(st.StatusName),
	}
	if view == ViewFull {
		notes := st.Notes
		res.Notes = &notes
		res.CreatedAt, res.UpdatedAt = formatTime(st.CreatedAt), formatTime(st.UpdatedAt)
	}
	if st.SubStatuses != nil {
		subs := SubStatuses(st.SubStatuses, view)
		res.SubStatuses = &subs
	}
	return res
}

// Statuses 批量转换状态
func Statuses(items []models.RepCountryStatus, view View) []StatusResource {
	out := make([]StatusResource, 0, len(items))
	for i := range items {
		out = append(out, Status(&items[i], view))
	}
	return out
}

// SubStatus 转换子状态
func SubStatus(sub *models.SubStatus, view View) SubStatusResource {
	res := SubStatusResource{
		ID:                 sub.ID,
		RepCountryStatusID: sub.RepCountryStatusID,
		Name:               sub.Name,
		Description:        sub.Description,
		Order:              sub.Order,
		IsActive:           sub.IsActive,
	}
	if view == ViewFull {
		res.CreatedAt, res.UpdatedAt = formatTime(sub.CreatedAt), formatTime(sub.UpdatedAt)
	}
	return res
}

// SubStatuses 批量转换子状态
func SubStatuses(items []models.SubStatus, view View) []SubStatusResource {
	out := make([]SubStatusResource, 0, len(items))
	for i := range items {
		out = append(out, SubStatus(&items[i], view))
	}
	return out
}

// ApplicationProcess 转换申请流程
func ApplicationProcess(p *models.ApplicationProcess, view View) ApplicationProcessResource {
	res := ApplicationProcessResource{
		ID:          p.ID,
		ParentID:    p.ParentID,
		Name:        p.Name,
		Description: p.Description,
		Order:       p.Order,
		IsActive:    p.IsActive,
	}
	if view == ViewFull {
		res.OrganizationID = p.OrganizationID
		res.CreatedAt, res.UpdatedAt = formatTime(p.CreatedAt), formatTime(p.UpdatedAt)
	}
	if p.Children != nil {
		children := ApplicationProcesses(p.Children, view)
		res.Children = &children
	}
	return res
}

// ApplicationProcesses 批量转换申请流程
func ApplicationProcesses(items []models.ApplicationProcess, view View) []ApplicationProcessResource {
	out := make([]ApplicationProcessResource, 0, len(items))
	for i := range items {
		out = append(out, ApplicationProcess(&items[i], view))
	}
	return out
}

// ApplicationProcessTree 转换流程树，叶子节点输出空 children
func ApplicationProcessTree(nodes []*models.ApplicationProcessTreeNode, view View) []ApplicationProcessResource {
	out := make([]ApplicationProcessResource, 0, len(nodes))
	for _, node := range nodes {
		res := ApplicationProcess(node.ApplicationProcess, view)
		children := ApplicationProcessTree(node.Children, view)
		res.Children = &children
		out = append(out, res)
	}
	return out
}

func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}
