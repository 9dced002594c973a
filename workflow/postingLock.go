package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

func stockEntryLockName(businessId string, stockEntry string) string {
	return fmt.Sprintf("gate_pass:%s:%s", businessId, stockEntry)
}

// AcquireStockEntryLock serializes gate pass creation per stock entry across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same *gorm.DB that will run the creating transaction.
func AcquireStockEntryLock(tx *gorm.DB, businessId string, stockEntry string) error {
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", stockEntryLockName(businessId, stockEntry)).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire gate pass lock for stock entry %s", stockEntry)
	}
	return nil
}

func ReleaseStockEntryLock(tx *gorm.DB, businessId string, stockEntry string) {
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", stockEntryLockName(businessId, stockEntry)).Scan(&_ok).Error
}
