package models

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireProfilePostingLock serializes posting per profile across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same *gorm.DB that will do the posting transaction.
func AcquireProfilePostingLock(tx *gorm.DB, profileId string) error {
	lockName := fmt.Sprintf("posting:%s", profileId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for profile_id=%s", profileId)
	}
	return nil
}

func ReleaseProfilePostingLock(tx *gorm.DB, profileId string) {
	lockName := fmt.Sprintf("posting:%s", profileId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
