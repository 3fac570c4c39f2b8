package feed_test

import (
	"testing"

	"github.com/snapgram/go-feed-core/feed"
	"github.com/stretchr/testify/require"
)

func TestStore_UpsertAndGet(t *testing.T) {
	store := feed.NewStore()

	_, ok := store.Get("post-1")
	require.False(t, ok)

	store.Upsert(feed.Item{ID: "post-1", LikeCount: 3})

	item, ok := store.Get("post-1")
	require.True(t, ok)
	require.Equal(t, 3, item.LikeCount)
	require.False(t, item.LikedByViewer)
}

func TestStore_UpsertNotifies(t *testing.T) {
	store := feed.NewStore()

	var seen []feed.Item
	id := store.Subscribe(func(item feed.Item) { seen = append(seen, item) })

	store.Upsert(feed.Item{ID: "post-1"})
	store.Unsubscribe(id)
	store.Upsert(feed.Item{ID: "post-2"})

	require.Len(t, seen, 1)
	require.Equal(t, "post-1", seen[0].ID)
}
