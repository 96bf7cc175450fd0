// @title           Oracle Migration API
// @version         1.0.0
// @description     Backend API for converting Sybase / T-SQL sources to Oracle SQL. It tracks migration projects and their files through conversion, review and deployment, and publishes lifecycle events via Supabase Realtime.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
