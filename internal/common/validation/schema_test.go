// internal/common/validation/schema_test.go
package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ranking-workers/pkg/registry"
)

func decodeVariables(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &vars))
	return vars
}

func TestValidator_DefaultRegistry(t *testing.T) {
	v, err := NewValidator(registry.Default())
	require.NoError(t, err)

	tests := []struct {
		name           string
		taskType       string
		variables      string
		validateOutput func(t *testing.T, result *ValidationResult)
	}{
		{
			name:      "valid rankings request with extra process variables",
			taskType:  "compute-rankings",
			variables: `{"filters":{"countries":["US"],"minReviews":3},"sortBy":"growth","sortDirection":"asc","requestId":"abc"}`,
			validateOutput: func(t *testing.T, result *ValidationResult) {
				assert.True(t, result.Valid)
				assert.Empty(t, result.Errors)
			},
		},
		{
			name:      "unknown sort key",
			taskType:  "compute-rankings",
			variables: `{"sortBy":"popularity"}`,
			validateOutput: func(t *testing.T, result *ValidationResult) {
				assert.False(t, result.Valid)
				assert.True(t, result.HasErrors("sortBy"))
			},
		},
		{
			name:      "negative min reviews",
			taskType:  "compute-rankings",
			variables: `{"filters":{"minReviews":-1}}`,
			validateOutput: func(t *testing.T, result *ValidationResult) {
				assert.False(t, result.Valid)
				assert.True(t, result.HasErrors("filters"))
			},
		},
		{
			name:      "missing company id",
			taskType:  "query-ranking-history",
			variables: `{"days":30}`,
			validateOutput: func(t *testing.T, result *ValidationResult) {
				assert.False(t, result.Valid)
				require.NotEmpty(t, result.GetErrorMessages())
				assert.Contains(t, result.GetErrorMessages()[0], "companyId")
			},
		},
		{
			name:      "days out of range",
			taskType:  "query-ranking-history",
			variables: `{"companyId":"c1","days":400}`,
			validateOutput: func(t *testing.T, result *ValidationResult) {
				assert.False(t, result.Valid)
				assert.True(t, result.HasErrors("days"))
			},
		},
		{
			name:      "unregistered task type passes",
			taskType:  "something-else",
			variables: `{"anything":true}`,
			validateOutput: func(t *testing.T, result *ValidationResult) {
				assert.True(t, result.Valid)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.taskType, decodeVariables(t, tt.variables))
			tt.validateOutput(t, result)
		})
	}
}

func TestValidator_NilVariables(t *testing.T) {
	v, err := NewValidator(registry.Default())
	require.NoError(t, err)

	assert.True(t, v.Validate("index-rankings", nil).Valid)
	assert.False(t, v.Validate("extract-review-metadata", nil).Valid)
	assert.True(t, v.Has("index-rankings"))
	assert.False(t, v.Has("missing"))
}

func TestNewValidator_RejectsBrokenSchema(t *testing.T) {
	reg := &registry.ActivityRegistry{Activities: []registry.Activity{{
		ID:          "ranking.broken.schema",
		TaskType:    "broken",
		InputSchema: map[string]interface{}{"type": 42},
	}}}

	_, err := NewValidator(reg)
	assert.Error(t, err)
}
