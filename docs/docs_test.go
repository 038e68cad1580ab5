package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

// 文档模板必须能被 swag 渲染成合法 JSON
func TestSwaggerDocRenders(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var spec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &spec), "渲染结果应该是合法 JSON")

	assert.Equal(t, "homebase Daemon API", spec["info"].(map[string]interface{})["title"])
	assert.Equal(t, "/api/v1", spec["basePath"])

	paths := spec["paths"].(map[string]interface{})
	assert.Contains(t, paths, "/chat/context")
	assert.Contains(t, paths, "/chat/messages")
	assert.Contains(t, paths, "/settings/gateway")
}
