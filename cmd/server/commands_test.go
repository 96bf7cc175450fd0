package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steezyneo/oracle-ai-migrate-sub000/docs"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())
	assert.NotNil(t, serve.Flags().Lookup("skip-migrations"))

	down, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	assert.Equal(t, "down", down.Name())
}

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrate", "down", "zero"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps must be a positive integer")
}

func TestSetSwaggerHost(t *testing.T) {
	host, schemes := docs.SwaggerInfo.Host, docs.SwaggerInfo.Schemes
	t.Cleanup(func() {
		docs.SwaggerInfo.Host, docs.SwaggerInfo.Schemes = host, schemes
	})

	setSwaggerHost("https://api.example.com")
	assert.Equal(t, "api.example.com", docs.SwaggerInfo.Host)
	assert.Equal(t, []string{"https", "http"}, docs.SwaggerInfo.Schemes)

	setSwaggerHost("")
	assert.Equal(t, "api.example.com", docs.SwaggerInfo.Host)
}
