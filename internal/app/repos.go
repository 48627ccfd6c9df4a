package app

import (
	"github.com/yungbote/brandprompt-backend/internal/data/db"
	"github.com/yungbote/brandprompt-backend/internal/data/repos"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

type Repos struct {
	BrandRecord repos.BrandRecordRepo
}

func wireRepos(conn db.Conn, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		BrandRecord: repos.NewBrandRecordRepo(conn, log),
	}
}
