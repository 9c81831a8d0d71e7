package sanitize

import (
	"path/filepath"
	"testing"

	"dompet/pkg/attachment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTables(t *testing.T) {
	assert.Equal(t, []string{"users", "transactions"}, ParseTables(DefaultTables))
	assert.Equal(t, []string{"users", "_x1"}, ParseTables(" users, ,users;drop,_x1,1bad"))
	assert.Empty(t, ParseTables(""))
}

func TestTruncateStatement(t *testing.T) {
	assert.Equal(t, `TRUNCATE TABLE "users", "transactions" RESTART IDENTITY CASCADE`,
		TruncateStatement([]string{"users", "transactions"}))
}

func TestPurgeAttachments(t *testing.T) {
	files := attachment.NewStore(filepath.Join(t.TempDir(), "att"))
	n, err := PurgeAttachments(files)
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := uint(1); i <= 3; i++ {
		_, err := files.Save(1, i, []byte{byte(i)})
		require.NoError(t, err)
	}
	n, err = PurgeAttachments(files)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	refs, err := files.List()
	require.NoError(t, err)
	assert.Empty(t, refs)
}
