package models

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/fintrack_backend/utils"
)

type Resource interface {
	GetProfileId() string
}

// first find in redis, then in db, using ctx's profile_id in WHERE, cache result
// (may return RecordNotFound error)
func GetResource[T Resource](ctx context.Context, id int, associations ...string) (*T, error) {

	profileId, ok := utils.GetProfileIdFromContext(ctx)
	if !ok || profileId == "" {
		return nil, errors.New("profile id is required")
	}
	// find in redis
	result, err := utils.RetrieveRedis[T](id)
	if err != nil {
		return nil, err
	}
	// if not found in redis
	if result == nil {
		// fetch from db
		result, err = utils.FetchModel[T](ctx, profileId, id, associations...)
		if err != nil {
			return nil, err
		}

		// store in redis
		if err := utils.StoreRedis[T](result, id); err != nil {
			return nil, err
		}
	} else {
		// if found in redis
		// check if profile ids match
		if (*result).GetProfileId() != profileId {
			return nil, errors.New("cannot access resource owned by other profile")
		}
	}

	return result, nil
}
