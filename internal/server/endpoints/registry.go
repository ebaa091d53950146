package endpoints

import (
	"github.com/jackzampolin/stockpilot/internal/api"
	"github.com/jackzampolin/stockpilot/internal/driver"
)

// All returns every endpoint the server exposes.
func All(driverMgr *driver.DockerManager) []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&StatusEndpoint{DriverManager: driverMgr},
		&StartRunEndpoint{},
		&StopRunEndpoint{},
		&RunStatusEndpoint{},
	}
}
