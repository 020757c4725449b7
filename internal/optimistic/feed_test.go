package optimistic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string
	Text string
}

func noteID(n note) string { return n.ID }

func TestApplyThenResolve(t *testing.T) {
	f := FromItems([]note{{"1", "hi"}}, noteID)
	tmp := NewTempID()
	require.True(t, IsTemp(tmp))

	f = f.Apply(tmp, note{tmp, "on my way"})
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 1, f.Pending())

	f = f.Resolve(tmp, "2", note{"2", "on my way"})
	assert.Equal(t, 0, f.Pending())
	assert.Equal(t, []note{{"1", "hi"}, {"2", "on my way"}}, f.Items())
}

func TestResolve_StoredItemAlreadyPresent(t *testing.T) {
	tmp := NewTempID()
	f := Feed[note]{}.Apply(tmp, note{tmp, "x"})
	f = f.Resolve("", "9", note{"9", "x"})
	require.Equal(t, 2, f.Len())

	f = f.Resolve(tmp, "9", note{"9", "x"})
	assert.Equal(t, []note{{"9", "x"}}, f.Items())
}

func TestDiscard(t *testing.T) {
	tmp := NewTempID()
	f := FromItems([]note{{"1", "a"}}, noteID).Apply(tmp, note{tmp, "b"})
	f = f.Discard(tmp)
	assert.Equal(t, []note{{"1", "a"}}, f.Items())
	assert.Equal(t, 0, f.Pending())
}

func TestMethodsDoNotModifyReceiver(t *testing.T) {
	tmp := NewTempID()
	base := FromItems([]note{{"1", "a"}}, noteID).Apply(tmp, note{tmp, "b"})

	_ = base.Discard(tmp)
	_ = base.Resolve(tmp, "2", note{"2", "b"})
	assert.Equal(t, 2, base.Len())
	assert.Equal(t, 1, base.Pending())
}

func TestApply_DuplicatePlaceholderIgnored(t *testing.T) {
	f := Feed[note]{}.Apply("temp-1", note{"temp-1", "a"}).Apply("temp-1", note{"temp-1", "a"})
	assert.Equal(t, 1, f.Len())
	assert.False(t, IsTemp("42"))
}
