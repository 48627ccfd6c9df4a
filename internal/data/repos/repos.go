package repos

import (
	"github.com/yungbote/brandprompt-backend/internal/data/db"
	"github.com/yungbote/brandprompt-backend/internal/data/repos/brands"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

type BrandRecordRepo = brands.BrandRecordRepo

func NewBrandRecordRepo(conn db.Conn, baseLog *logger.Logger) BrandRecordRepo {
	return brands.NewBrandRecordRepo(conn, baseLog)
}
