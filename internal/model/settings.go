package model

import (
	"time"

	"github.com/google/uuid"
)

// Module names used by the per-tenant toggles
const (
	ModuleSales         = "sales"
	ModuleCashflow      = "cashflow"
	ModuleNotifications = "notifications"
)

type Modules struct {
	Sales         bool `json:"sales"`
	Cashflow      bool `json:"cashflow"`
	Notifications bool `json:"notifications"`
}

// Enabled reports the toggle for a module name; unknown names are enabled.
func (m Modules) Enabled(name string) bool {
	switch name {
	case ModuleSales:
		return m.Sales
	case ModuleCashflow:
		return m.Cashflow
	case ModuleNotifications:
		return m.Notifications
	default:
		return true
	}
}

// Settings is the per-tenant singleton.
type Settings struct {
	TenantID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	DisplayName string    `gorm:"type:varchar(255)" json:"display_name"`
	LogoRef     string    `gorm:"type:varchar(512)" json:"logo_ref"`
	Modules     Modules   `gorm:"embedded;embeddedPrefix:module_" json:"modules"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultSettings is what a tenant sees before saving anything.
func DefaultSettings(tenantID uuid.UUID) Settings {
	return Settings{
		TenantID: tenantID,
		Modules:  Modules{Sales: true, Cashflow: true, Notifications: true},
	}
}
