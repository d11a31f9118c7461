package repository

import (
	"errors"
	"fmt"
	"learnhub_backend/internal/util"

	"gorm.io/gorm"
)

// translate 把 gorm 错误转换为业务哨兵错误，what 用于提示具体对象
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return util.NotFoundf("%s", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w: %w", what, util.ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, util.ErrNotFound)
}
