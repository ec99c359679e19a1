// Package production contains production configuration of the app
package production

import (
	"os"
	"strings"

	"posguard/config"
)

type prodconf struct{}

func New() config.AppConfiger {
	return prodconf{}
}

func (pc prodconf) GetPort() string {
	appPort := os.Getenv("PG_APP_PORT")
	if strings.TrimSpace(appPort) == "" {
		appPort = "8080"
	}
	return appPort
}

func (pc prodconf) GetDBURL() string {
	dbURL := os.Getenv("PG_DB_URL")
	if strings.TrimSpace(dbURL) == "" {
		dbURL = "/var/lib/posguard/storage/posguard.db"
	}
	return dbURL
}

func (pc prodconf) GetControlPlaneURL() string {
	cpURL := os.Getenv("PG_CONTROL_PLANE_URL")
	if strings.TrimSpace(cpURL) == "" {
		cpURL = "https://api.posguard.dev"
	}
	return cpURL
}

func (pc prodconf) GetDataDir() string {
	dataDir := os.Getenv("PG_DATA_DIR")
	if strings.TrimSpace(dataDir) == "" {
		dataDir = "/var/lib/posguard"
	}
	return dataDir
}
