package domain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParsePolicyMode(t *testing.T) {
	for _, s := range []string{"none", "own", "global"} {
		mode, err := ParsePolicyMode(s)

		assert.Nil(t, err)
		assert.Equal(t, PolicyMode(s), mode)
	}
}

func TestParsePolicyMode_Unknown(t *testing.T) {
	_, err := ParsePolicyMode("whatever")

	assert.NotNil(t, err)
	assert.Equal(t, ErrUnsupportedPolicy, errors.Cause(err))
}
