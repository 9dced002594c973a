package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/gate_entry/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NamingSeries holds the last number issued per business and prefix, e.g. "GP-2026-".
type NamingSeries struct {
	BusinessId string    `gorm:"primaryKey;size:64;autoIncrement:false" json:"business_id"`
	Prefix     string    `gorm:"primaryKey;size:40;autoIncrement:false" json:"prefix"`
	Current    int       `gorm:"not null;default:0" json:"current"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const namingSeriesDigits = 5

func gatePassSeries(now time.Time) string     { return fmt.Sprintf("GP-%d-", now.Year()) }
func stockEntrySeries(now time.Time) string   { return fmt.Sprintf("MAT-STE-%d-", now.Year()) }
func purchaseReceiptSeries(now time.Time) string {
	return fmt.Sprintf("MAT-PRE-%d-", now.Year())
}
func subcontractingReceiptSeries(now time.Time) string {
	return fmt.Sprintf("MAT-SCR-%d-", now.Year())
}

func formatSeriesName(prefix string, n int) string {
	return fmt.Sprintf("%s%0*d", prefix, namingSeriesDigits, n)
}

// nextSeriesNumber locks the series row for the rest of tx and bumps it.
// The row is created on first use; a concurrent creator is absorbed by ON CONFLICT DO NOTHING.
func nextSeriesNumber(ctx context.Context, tx *gorm.DB, prefix string) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", utils.ErrorBusinessId
	}

	seed := NamingSeries{BusinessId: businessId, Prefix: prefix}
	if err := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return "", err
	}

	var series NamingSeries
	if err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND prefix = ?", businessId, prefix).
		Take(&series).Error; err != nil {
		return "", err
	}

	series.Current++
	if err := tx.WithContext(ctx).Model(&NamingSeries{}).
		Where("business_id = ? AND prefix = ?", businessId, prefix).
		Update("current", series.Current).Error; err != nil {
		return "", err
	}
	return formatSeriesName(prefix, series.Current), nil
}
