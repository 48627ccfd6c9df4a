package app

import "github.com/yungbote/brandprompt-backend/internal/pkg/envutil"

func envLogMode() string {
	return envutil.String("LOG_MODE", "development")
}
