package models

// RepresentingCountry 机构代理的留学国家
type RepresentingCountry struct {
	BaseModel
	OrganizationScoped
	CountryID           uint     `json:"country_id" gorm:"not null;index"`
	MonthlyLivingCost   *float64 `json:"monthly_living_cost"`
	Currency            string   `json:"currency" gorm:"size:10"`
	VisaRequirements    string   `json:"visa_requirements" gorm:"type:text"`
	PartTimeWorkDetails string   `json:"part_time_work_details" gorm:"type:text"`
	CountryBenefits     string   `json:"country_benefits" gorm:"type:text"`
	IsActive            bool     `json:"is_active"`

	Country              *Country             `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	Statuses             []RepCountryStatus   `gorm:"foreignKey:RepresentingCountryID" json:"statuses,omitempty"`
	ApplicationProcesses []ApplicationProcess `gorm:"many2many:representing_country_application_processes;" json:"application_processes,omitempty"`
}

// TableName 表名
func (RepresentingCountry) TableName() string {
	return "representing_countries"
}
