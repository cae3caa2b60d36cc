package vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitShort(t *testing.T) {
	prev := Commit
	t.Cleanup(func() { Commit = prev })

	Commit = "da15c174cd2ada1ad247906536c101e8f6799def"
	assert.Equal(t, "da15c17", CommitShort())
	assert.Equal(t, "da15c17", Info().CommitShort)

	Commit = "abc"
	assert.Equal(t, "abc", CommitShort())
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "MTABot/dev (+https://github.com/woozymasta/mtabot)", UserAgent())
}
