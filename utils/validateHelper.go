package utils

import (
	"context"
	"errors"
	"reflect"

	"bitbucket.org/mmdatafocus/portal_backend/config"
)

// check if id exists, using owner_id in WHERE, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, ownerId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, ownerId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, ownerId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, ownerId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, ownerId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE owner_id = ? AND $condition
// owner_id can be blank for internal ops callers
func ResourceCountWhere[T any](ctx context.Context, ownerId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if ownerId != "" {
		dbCtx.Where("owner_id = ?", ownerId)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FetchModel loads a single owner-scoped record by id.
func FetchModel[T any](ctx context.Context, ownerId string, id int, preloads ...string) (*T, error) {
	db := config.GetDB()
	var result T
	dbCtx := db.WithContext(ctx).Where("owner_id = ?", ownerId)
	for _, preload := range preloads {
		dbCtx = dbCtx.Preload(preload)
	}
	if err := dbCtx.First(&result, id).Error; err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}
