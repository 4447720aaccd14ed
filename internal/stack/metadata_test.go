package stack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

func TestParseMessage(t *testing.T) {
	t.Run("untracked commit returns nil metadata", func(t *testing.T) {
		meta, rest, err := ParseMessage("add feature\n\nsome body text\n")
		require.NoError(t, err)
		require.Nil(t, meta)
		require.Equal(t, "add feature\n\nsome body text", rest)
	})

	t.Run("trailer keys in body prose are not metadata", func(t *testing.T) {
		message := "title\n\nstackpr-id: just discussing the key here\n\nmore body\n"
		meta, rest, err := ParseMessage(message)
		require.NoError(t, err)
		require.Nil(t, meta)
		require.Contains(t, rest, "stackpr-id: just discussing the key here")
	})

	t.Run("single paragraph message is all title", func(t *testing.T) {
		meta, rest, err := ParseMessage("stackpr-id: abc\n")
		require.NoError(t, err)
		require.Nil(t, meta)
		require.Equal(t, "stackpr-id: abc", rest)
	})

	t.Run("full trailer round-trips", func(t *testing.T) {
		message := "add feature\n\nbody\n\nstackpr-id: abc-123\nstackpr-pr: 42\nstackpr-hash: deadbeef\n"
		meta, rest, err := ParseMessage(message)
		require.NoError(t, err)
		require.NotNil(t, meta)
		require.Equal(t, "abc-123", meta.CommitID)
		require.Equal(t, 42, meta.PRNumber)
		require.Equal(t, "deadbeef", meta.SyncHash)
		require.Equal(t, "add feature\n\nbody", rest)
	})

	t.Run("id only is valid", func(t *testing.T) {
		meta, _, err := ParseMessage("title\n\nstackpr-id: abc\n")
		require.NoError(t, err)
		require.Equal(t, "abc", meta.CommitID)
		require.Equal(t, 0, meta.PRNumber)
		require.Empty(t, meta.SyncHash)
	})

	t.Run("duplicate key is corrupt", func(t *testing.T) {
		_, _, err := ParseMessage("title\n\nstackpr-id: a\nstackpr-id: b\n")
		require.Error(t, err)
		require.ErrorIs(t, err, stackprerrors.ErrMetadataCorrupt)
	})

	t.Run("malformed pr number is corrupt", func(t *testing.T) {
		_, _, err := ParseMessage("title\n\nstackpr-id: a\nstackpr-pr: soon\n")
		require.ErrorIs(t, err, stackprerrors.ErrMetadataCorrupt)
	})

	t.Run("hash without id is corrupt", func(t *testing.T) {
		_, _, err := ParseMessage("title\n\nstackpr-hash: abc123\n")
		require.ErrorIs(t, err, stackprerrors.ErrMetadataCorrupt)

		var corrupt *stackprerrors.MetadataCorruptError
		require.True(t, errors.As(err, &corrupt))
	})

	t.Run("unknown trailers are untouched", func(t *testing.T) {
		message := "title\n\nSigned-off-by: Someone <s@example.com>\nstackpr-id: abc\n"
		meta, rest, err := ParseMessage(message)
		require.NoError(t, err)
		require.Equal(t, "abc", meta.CommitID)
		require.Contains(t, rest, "Signed-off-by: Someone <s@example.com>")
	})
}

func TestFormatMessage(t *testing.T) {
	meta := &Metadata{CommitID: "abc-123", PRNumber: 7, SyncHash: "cafe01"}

	t.Run("appends trailer block", func(t *testing.T) {
		out := FormatMessage("add feature\n\nbody\n", meta)
		require.Equal(t, "add feature\n\nbody\n\nstackpr-id: abc-123\nstackpr-pr: 7\nstackpr-hash: cafe01\n", out)
	})

	t.Run("is idempotent", func(t *testing.T) {
		once := FormatMessage("add feature\n", meta)
		twice := FormatMessage(once, meta)
		require.Equal(t, once, twice)
	})

	t.Run("replaces an existing block", func(t *testing.T) {
		old := FormatMessage("title\n", &Metadata{CommitID: "old-id"})
		out := FormatMessage(old, meta)
		require.NotContains(t, out, "old-id")
		require.Contains(t, out, "stackpr-id: abc-123")
	})

	t.Run("round-trips through parse", func(t *testing.T) {
		out := FormatMessage("title\n\nbody\n", meta)
		parsed, rest, err := ParseMessage(out)
		require.NoError(t, err)
		require.Equal(t, meta, parsed)
		require.Equal(t, "title\n\nbody", rest)
	})

	t.Run("omits zero fields", func(t *testing.T) {
		out := FormatMessage("title\n", &Metadata{CommitID: "abc"})
		require.NotContains(t, out, "stackpr-pr")
		require.NotContains(t, out, "stackpr-hash")
	})
}

func TestStripMetadata(t *testing.T) {
	t.Run("removes trailer", func(t *testing.T) {
		message := FormatMessage("title\n\nbody\n", &Metadata{CommitID: "abc"})
		require.Equal(t, "title\n\nbody", StripMetadata(message))
	})

	t.Run("leaves corrupt trailer in place", func(t *testing.T) {
		message := "title\n\nstackpr-id: a\nstackpr-id: b\n"
		require.Equal(t, message, StripMetadata(message))
	})

	t.Run("strips to the same text before and after the trailer is written", func(t *testing.T) {
		message := "title\n\nbody\n"
		withMeta := FormatMessage(message, &Metadata{CommitID: "abc", PRNumber: 3, SyncHash: "beef"})
		require.Equal(t, StripMetadata(message), StripMetadata(withMeta))
	})
}
