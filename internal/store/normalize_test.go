package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hoàn Kiếm", "hoan kiem"},
		{"Cầu Giấy", "cau giay"},
		{"Đống Đa", "dong da"},
		{"Hà Đông", "ha dong"},
		{"  Ba Đình  ", "ba dinh"},
		{"Long Bien", "long bien"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), "input %q", tt.in)
	}
}

// Names from the two feeds compare equal after folding, which is what district
// identity reconciliation relies on.
func TestNormalizeNameReconcilesFeeds(t *testing.T) {
	assert.Equal(t, NormalizeName("Cầu Giấy"), NormalizeName("Cau Giay"))
	assert.Equal(t, NormalizeName("ĐỐNG ĐA"), NormalizeName("Đống Đa"))
}
