package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "mastery/pkg/domain-errors"
)

type sample struct {
	CourseID *int64 `json:"course_id" validate:"required"`
	Type     string `json:"verification_type" validate:"omitempty,max=16"`
	Oracle   string `json:"principal" validate:"notblank"`
}

func TestValidate(t *testing.T) {
	courseID := int64(1)

	tests := []struct {
		name    string
		req     sample
		wantMsg string
	}{
		{"valid", sample{CourseID: &courseID, Type: "quiz", Oracle: "oracle"}, ""},
		{"missing pointer field", sample{Type: "quiz", Oracle: "oracle"}, "course_id is required"},
		{"too long", sample{CourseID: &courseID, Type: "a-very-long-type-name", Oracle: "oracle"}, "verification_type must be at most 16"},
		{"blank principal", sample{CourseID: &courseID, Type: "quiz", Oracle: "   "}, "principal must not be blank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}
