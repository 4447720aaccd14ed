package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentHash(t *testing.T) {
	t.Run("ignores the metadata trailer", func(t *testing.T) {
		plain := ContentHash("tree0", "tree1", "title\n\nbody\n")
		withMeta := ContentHash("tree0", "tree1", FormatMessage("title\n\nbody\n", &Metadata{
			CommitID: "abc",
			PRNumber: 12,
			SyncHash: "beef",
		}))
		require.Equal(t, plain, withMeta)
	})

	t.Run("changes with the message", func(t *testing.T) {
		a := ContentHash("tree0", "tree1", "one\n")
		b := ContentHash("tree0", "tree1", "two\n")
		require.NotEqual(t, a, b)
	})

	t.Run("changes with the trees", func(t *testing.T) {
		a := ContentHash("tree0", "tree1", "msg\n")
		b := ContentHash("tree0", "tree2", "msg\n")
		c := ContentHash("treeX", "tree1", "msg\n")
		require.NotEqual(t, a, b)
		require.NotEqual(t, a, c)
	})

	t.Run("field boundaries are unambiguous", func(t *testing.T) {
		a := ContentHash("ab", "c", "msg")
		b := ContentHash("a", "bc", "msg")
		require.NotEqual(t, a, b)
	})
}

func TestClassify(t *testing.T) {
	t.Run("no metadata is new", func(t *testing.T) {
		e := &Entry{ContentHash: "abc"}
		require.Equal(t, ChangeNew, Classify(e))
	})

	t.Run("matching sync hash is unchanged", func(t *testing.T) {
		e := &Entry{
			Meta:        &Metadata{CommitID: "id", SyncHash: "abc"},
			ContentHash: "abc",
		}
		require.Equal(t, ChangeUnchanged, Classify(e))
	})

	t.Run("differing sync hash is modified", func(t *testing.T) {
		e := &Entry{
			Meta:        &Metadata{CommitID: "id", SyncHash: "old"},
			ContentHash: "new",
		}
		require.Equal(t, ChangeModified, Classify(e))
	})

	t.Run("tracked without sync hash is modified", func(t *testing.T) {
		e := &Entry{
			Meta:        &Metadata{CommitID: "id"},
			ContentHash: "abc",
		}
		require.Equal(t, ChangeModified, Classify(e))
	})
}

func TestHeadBranchName(t *testing.T) {
	t.Run("uses the first eight characters of the id", func(t *testing.T) {
		require.Equal(t, "spr/01234567", HeadBranchName("", "0123456789abcdef"))
	})

	t.Run("respects a custom prefix", func(t *testing.T) {
		require.Equal(t, "me/01234567", HeadBranchName("me", "0123456789abcdef"))
	})

	t.Run("does not depend on the commit title", func(t *testing.T) {
		id := NewCommitID()
		require.Equal(t, HeadBranchName("", id), HeadBranchName("", id))
	})
}
