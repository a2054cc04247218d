package sha256

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	t.Parallel()

	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	require.Equal(t, want, Hash([]byte("hello world")))
	require.Equal(t, Hash([]byte("hello world")), Hash([]byte("hello world")))
}

func TestETag(t *testing.T) {
	t.Parallel()

	tag := ETag([]byte("<html></html>"))
	require.Len(t, tag, 66)
	require.Equal(t, byte('"'), tag[0])
	require.Equal(t, byte('"'), tag[len(tag)-1])
	require.NotEqual(t, tag, ETag([]byte("<html> </html>")))
}
