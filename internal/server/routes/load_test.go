package routes

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDataPath(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name string
		path string
		want string
		ok   bool
	}{
		{"relative", "march.json", filepath.Join(dir, "march.json"), true},
		{"nested", "2024/march.json", filepath.Join(dir, "2024", "march.json"), true},
		{"absolute inside", filepath.Join(dir, "march.json"), filepath.Join(dir, "march.json"), true},
		{"object store", "s3://datasets/march.json", "s3://datasets/march.json", true},
		{"parent", "../march.json", "", false},
		{"escaping nested", "2024/../../march.json", "", false},
		{"absolute outside", "/etc/passwd", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := resolveDataPath(dir, tc.path)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	_, ok := resolveDataPath("", "march.json")
	assert.False(t, ok)
}
