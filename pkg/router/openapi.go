package router

import (
	"os"
	"path/filepath"

	"epic-tech-ai/backend/pkg/validator"
)

// AddOpenAPIValidation validates documented routes against the schema and
// serves the schema under /api/docs. It must run before SetupRoutes.
func (r *Router) AddOpenAPIValidation(schemaPath string) bool {
	if !fileExists(schemaPath) {
		r.Logger.Warn("OpenAPI schema file not found, skipping validation", "path", schemaPath)
		return false
	}

	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		r.Logger.LogError(err, "Failed to initialize OpenAPI validator", "path", schemaPath)
		return false
	}

	r.Engine.Use(v.Middleware())
	r.Logger.Info("OpenAPI validation enabled", "schema", schemaPath, "version", v.Version())

	schemaFile := filepath.Base(schemaPath)
	r.Engine.StaticFile("/api/docs/"+schemaFile, schemaPath)
	r.Logger.Info("OpenAPI schema available", "url", "/api/docs/"+schemaFile)

	return true
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
