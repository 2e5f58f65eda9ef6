package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	assert.True(t, Verify("s3cret", hash))
	assert.False(t, Verify("wrong", hash))
}

func TestHash_SaltsDiffer(t *testing.T) {
	a, err := Hash("same-password")
	require.NoError(t, err)
	b, err := Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, Verify("same-password", a))
	assert.True(t, Verify("same-password", b))
}

func TestVerify_MalformedHash(t *testing.T) {
	for _, encoded := range []string{"", "plain", "$argon2id$v=19$broken", "$md5$v=19$m=1,t=1,p=1$a$b"} {
		assert.False(t, Verify("anything", encoded), "encoded %q", encoded)
	}
}
