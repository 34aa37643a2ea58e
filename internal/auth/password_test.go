package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minjae-dev/gomarket/internal/auth"
)

func TestValidPassword(t *testing.T) {
	cases := []struct {
		password string
		want     bool
	}{
		{"abcdefghij", false}, // 10 chars, 1 class
		{"abcdefghi1", true},  // 10 chars, 2 classes
		{"ABCDEFGH12", true},  // 10 chars, 2 classes
		{"abcdefg1", false},   // 8 chars, 2 classes only
		{"Abcdefg1", true},    // 8 chars, 3 classes
		{"abcd3f!h", true},    // 8 chars, 3 classes with special
		{"Ab1!", false},       // too short
		{"", false},
		{"!!!!!!!!!!", false}, // 10 chars, 1 class
		{"passw0rd??", true},  // 10 chars, lower+digit+special
		{"ЖЖЖЖ1!", false},     // 10 bytes but only 6 characters
		{"жжжжжжжж1!", true},  // 10 characters, lower+digit+special
	}

	for _, c := range cases {
		assert.Equalf(t, c.want, auth.ValidPassword(c.password), "password %q", c.password)
	}
}
