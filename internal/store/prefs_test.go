package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prdesk/prdesk/internal/store"
	"github.com/prdesk/prdesk/tests/testutil"
)

func TestPrefDefaults(t *testing.T) {
	ps := store.NewPrefStore(testutil.NewTestStore(t))
	ctx := context.Background()

	assert.True(t, ps.SoundEnabled(ctx))
	assert.True(t, ps.StatusVisible(ctx))
	assert.False(t, ps.GetBool(ctx, "unknown_pref", false))
}

func TestPrefRoundTrip(t *testing.T) {
	ps := store.NewPrefStore(testutil.NewTestStore(t))
	ctx := context.Background()

	require.NoError(t, ps.SetBool(ctx, store.PrefSoundEnabled, false))
	assert.False(t, ps.SoundEnabled(ctx))

	require.NoError(t, ps.SetBool(ctx, store.PrefSoundEnabled, true))
	assert.True(t, ps.SoundEnabled(ctx))
}

func TestPrefMalformedFallsBack(t *testing.T) {
	cs := testutil.NewTestStore(t)
	ps := store.NewPrefStore(cs)
	ctx := context.Background()

	require.NoError(t, cs.SetDoc(ctx, store.CollectionPreferences,
		store.PrefSoundEnabled, []byte(`{"value":"maybe"}`)))

	assert.True(t, ps.SoundEnabled(ctx), "unparseable value uses the default")
}

func TestMemberNameOf(t *testing.T) {
	cs := testutil.NewTestStore(t)
	ms := store.NewMemberStore(cs)
	ctx := context.Background()

	require.NoError(t, cs.SetDoc(ctx, store.CollectionMembers, "TM001",
		[]byte(`{"id":"TM001","name":"สมชาย"}`)))

	assert.Equal(t, "สมชาย", ms.NameOf(ctx, "TM001"))
	assert.Equal(t, "TM999", ms.NameOf(ctx, "TM999"), "missing member falls back to the ID")
}
