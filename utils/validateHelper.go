package utils

import (
	"context"
	"errors"
	"reflect"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
)

// check if id exists, using ctx's profile_id in WHERE, return RecordNOtFound Error
func ValidateResourceId[T any](ctx context.Context, profileId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, profileId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, profileId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, profileId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, profileId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE profile_id = ? AND $condition
// profile_id can be blank for internal runners
func ResourceCountWhere[T any](ctx context.Context, profileId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if profileId != "" {
		dbCtx.Where("profile_id = ?", profileId)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
