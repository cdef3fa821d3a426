package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"gorm.io/gorm"
)

// DashboardPreference holds per-owner widget toggles. Pure configuration,
// no numeric logic.
type DashboardPreference struct {
	ID            int       `gorm:"primary_key" json:"id"`
	OwnerId       string    `gorm:"size:64;not null;unique" json:"owner_id"`
	ShowAccounts  *bool     `gorm:"not null;default:true" json:"show_accounts"`
	ShowPayments  *bool     `gorm:"not null;default:true" json:"show_payments"`
	ShowDebts     *bool     `gorm:"not null;default:true" json:"show_debts"`
	ShowForecast  *bool     `gorm:"not null;default:true" json:"show_forecast"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type UpdateDashboardPreferenceInput struct {
	ShowAccounts *bool `json:"show_accounts"`
	ShowPayments *bool `json:"show_payments"`
	ShowDebts    *bool `json:"show_debts"`
	ShowForecast *bool `json:"show_forecast"`
}

func dashboardPreferenceCacheKey(ownerId string) string {
	return "dashboard-preference:" + ownerId
}

// GetDashboardPreference returns the owner's preferences, defaulting to all
// widgets visible when no row exists yet. Reads go through the Redis object
// cache; UpdateDashboardPreference invalidates it.
func GetDashboardPreference(ctx context.Context, ownerId string) (*DashboardPreference, error) {
	db := config.GetDB()

	var cached DashboardPreference
	if hit, err := config.GetRedisObject(dashboardPreferenceCacheKey(ownerId), &cached); err == nil && hit {
		return &cached, nil
	}

	var preference DashboardPreference
	err := db.WithContext(ctx).Where("owner_id = ?", ownerId).First(&preference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		preference = DashboardPreference{
			OwnerId:      ownerId,
			ShowAccounts: utils.NewTrue(),
			ShowPayments: utils.NewTrue(),
			ShowDebts:    utils.NewTrue(),
			ShowForecast: utils.NewTrue(),
		}
	} else if err != nil {
		return nil, err
	}

	_ = config.SetRedisObject(dashboardPreferenceCacheKey(ownerId), &preference, 10*time.Minute)
	return &preference, nil
}

func UpdateDashboardPreference(ctx context.Context, input *UpdateDashboardPreferenceInput) (*DashboardPreference, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	preference, err := GetDashboardPreference(ctx, ownerId)
	if err != nil {
		return nil, err
	}

	if input.ShowAccounts != nil {
		preference.ShowAccounts = input.ShowAccounts
	}
	if input.ShowPayments != nil {
		preference.ShowPayments = input.ShowPayments
	}
	if input.ShowDebts != nil {
		preference.ShowDebts = input.ShowDebts
	}
	if input.ShowForecast != nil {
		preference.ShowForecast = input.ShowForecast
	}

	if err := db.WithContext(ctx).Save(preference).Error; err != nil {
		return nil, err
	}

	if err := config.DeleteRedisKey(dashboardPreferenceCacheKey(ownerId)); err != nil {
		config.LogError(config.GetLogger(), "dashboardPreference.go", "UpdateDashboardPreference",
			"DeleteRedisKey", ownerId, err)
	}
	return preference, nil
}
