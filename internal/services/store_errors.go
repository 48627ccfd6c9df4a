package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	pkgerrors "github.com/yungbote/brandprompt-backend/internal/pkg/errors"
)

// mapStoreError folds Record Store failures into the brand error taxonomy.
// Identifier-format problems become ValidationError, missing rows become
// NotFoundError, and everything else is a scrubbed PersistenceError.
func mapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *brand.Error
	if errors.As(err, &be) {
		return err
	}
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidID):
		return brand.NewError(brand.KindValidation, op, "invalid brand ID format", err)
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return brand.NewError(brand.KindValidation, op, "invalid record", err)
	case errors.Is(err, pkgerrors.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return brand.NewError(brand.KindNotFound, op, "brand not found", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 22: data exception (invalid_text_representation and friends)
		if strings.HasPrefix(strings.TrimSpace(pgErr.Code), "22") {
			return brand.NewError(brand.KindValidation, op, "invalid brand ID format", err)
		}
	}
	return brand.Persistence(op, err)
}
