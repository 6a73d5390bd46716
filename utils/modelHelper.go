package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/fintrack_backend/config"
)

/* DB fetching */

// fetch model from db
// (ctx's profile_id is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, profileId string, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("profile_id = ?", profileId)
	// preloading
	for _, field := range associations {
		dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}
