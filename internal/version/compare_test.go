package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckVersionCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		engineVersion string
		otherVersion  string
		wantErr       bool
	}{
		{
			name:          "exact match",
			engineVersion: "1.2.0",
			otherVersion:  "1.2.0",
			wantErr:       false,
		},
		{
			name:          "patch differs",
			engineVersion: "1.2.1",
			otherVersion:  "1.2.0",
			wantErr:       false,
		},
		{
			name:          "minor differs",
			engineVersion: "1.3.0",
			otherVersion:  "1.2.0",
			wantErr:       true,
		},
		{
			name:          "major differs",
			engineVersion: "2.0.0",
			otherVersion:  "1.2.0",
			wantErr:       true,
		},
		{
			name:          "engine dev build skips check",
			engineVersion: "main",
			otherVersion:  "1.2.0",
			wantErr:       false,
		},
		{
			name:          "other dev build skips check",
			engineVersion: "1.2.0",
			otherVersion:  "main",
			wantErr:       false,
		},
		{
			name:          "v prefix stripped",
			engineVersion: "v1.2.0",
			otherVersion:  "1.2.3",
			wantErr:       false,
		},
		{
			name:          "invalid engine version",
			engineVersion: "not-a-version",
			otherVersion:  "1.2.0",
			wantErr:       true,
		},
		{
			name:          "invalid other version",
			engineVersion: "1.2.0",
			otherVersion:  "garbage",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckVersionCompatibility(tt.engineVersion, tt.otherVersion)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
	assert.Equal(t, CompilerVersion, GetCompilerVersion())
}
