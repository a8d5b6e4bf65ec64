package store_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codyseavey/cardboard-compass/backend/internal/database"
	"github.com/codyseavey/cardboard-compass/backend/internal/store"
)

type item struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Count    int    `json:"count,omitempty"`
}

func newTestStore(t *testing.T) *store.GormStore {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	return store.NewGormStore(db)
}

func TestPathHelpers(t *testing.T) {
	p := store.Join("users", "u1", "collection", "cards")

	require.Equal(t, store.Path("users/u1/collection/cards/abc"), p.Child("abc"))
	require.Equal(t, store.Path("users/u1/collection"), p.Parent())
	require.Equal(t, "cards", p.Key())
	require.Equal(t, []string{"users", "u1", "collection", "cards"}, p.Segments())
	require.Equal(t, store.Path("root"), store.Path("").Child("root"))
	require.Equal(t, store.Path(""), store.Path("root").Parent())

	require.NoError(t, p.Validate())
	require.ErrorIs(t, store.Path("").Validate(), store.ErrInvalidPath)
	require.ErrorIs(t, store.Path("users//cards").Validate(), store.ErrInvalidPath)
}

func TestGormStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	path := store.Join("users", "u1", "profile")

	var got item
	found, err := s.Get(ctx, path, &got)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.Set(ctx, path, item{Name: "Ash"}))
	found, err = s.Get(ctx, path, &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Ash", got.Name)

	// Set replaces the whole value
	require.NoError(t, s.Set(ctx, path, item{Name: "Misty", Count: 2}))
	got = item{}
	_, err = s.Get(ctx, path, &got)
	require.NoError(t, err)
	require.Equal(t, item{Name: "Misty", Count: 2}, got)
}

func TestGormStore_UpdateMergesTopLevelFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	path := store.Join("users", "u1", "cards", "c1")

	require.NoError(t, s.Set(ctx, path, item{Name: "Pikachu", Category: "pokemon"}))
	require.NoError(t, s.Update(ctx, path, map[string]any{"count": 3}))

	var got item
	_, err := s.Get(ctx, path, &got)
	require.NoError(t, err)
	require.Equal(t, item{Name: "Pikachu", Category: "pokemon", Count: 3}, got)
}

func TestGormStore_UpdateCreatesMissingNode(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	path := store.Join("users", "u1", "profile")

	require.NoError(t, s.Update(ctx, path, map[string]any{"name": "Brock"}))

	var got item
	found, err := s.Get(ctx, path, &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Brock", got.Name)
}

func TestGormStore_MergeRequiresExistingNode(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	path := store.Join("users", "u1", "cards", "c1")

	err := s.Merge(ctx, path, map[string]any{"count": 3})
	require.ErrorIs(t, err, store.ErrNotFound)

	var got item
	found, err := s.Get(ctx, path, &got)
	require.NoError(t, err)
	require.False(t, found, "a failed merge must not create the node")

	require.NoError(t, s.Set(ctx, path, item{Name: "Pikachu"}))
	require.NoError(t, s.Merge(ctx, path, map[string]any{"count": 3}))
	_, err = s.Get(ctx, path, &got)
	require.NoError(t, err)
	require.Equal(t, item{Name: "Pikachu", Count: 3}, got)

	// Gone again after a delete
	require.NoError(t, s.Delete(ctx, path))
	require.ErrorIs(t, s.Merge(ctx, path, map[string]any{"count": 4}), store.ErrNotFound)
}

func TestGormStore_DeleteRemovesSubtree(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	card := store.Join("users", "u1", "cards", "c1")
	history := card.Child("history").Child("p1")
	sibling := store.Join("users", "u1", "cards", "c10")

	require.NoError(t, s.Set(ctx, card, item{Name: "a"}))
	require.NoError(t, s.Set(ctx, history, item{Name: "b"}))
	require.NoError(t, s.Set(ctx, sibling, item{Name: "c"}))

	require.NoError(t, s.Delete(ctx, card))

	var got item
	found, err := s.Get(ctx, card, &got)
	require.NoError(t, err)
	require.False(t, found)
	found, err = s.Get(ctx, history, &got)
	require.NoError(t, err)
	require.False(t, found)

	// A key sharing the prefix without the separator is not a descendant
	found, err = s.Get(ctx, sibling, &got)
	require.NoError(t, err)
	require.True(t, found)

	// Deleting again is a no-op
	require.NoError(t, s.Delete(ctx, card))
}

func TestGormStore_NonASCIISegments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, owner := range []string{"józef", "ユーザー", "zoë-😀"} {
		t.Run(owner, func(t *testing.T) {
			card := store.Join("users", owner, "collection", "cards", "c1")
			history := card.Child("history").Child("tcgplayer").Child("p1")
			stats := store.Join("users", owner, "collection", "stats")

			require.NoError(t, s.Set(ctx, card, item{Name: "a"}))
			require.NoError(t, s.Set(ctx, history, item{Name: "b"}))
			require.NoError(t, s.Set(ctx, stats, item{}))

			paths, err := s.Find(ctx, store.Join("users", owner), "stats")
			require.NoError(t, err)
			require.Equal(t, []store.Path{stats}, paths)

			require.NoError(t, s.Delete(ctx, card))
			children, err := s.Children(ctx, history.Parent())
			require.NoError(t, err)
			require.Empty(t, children)

			var got item
			found, err := s.Get(ctx, stats, &got)
			require.NoError(t, err)
			require.True(t, found)
		})
	}
}

func TestGormStore_PushIsOrderedAndUnique(t *testing.T) {
	s := newTestStore(t)
	parent := store.Join("users", "u1", "cards")

	first, err := s.Push(parent)
	require.NoError(t, err)
	second, err := s.Push(parent)
	require.NoError(t, err)

	require.Equal(t, parent, first.Parent())
	require.NotEqual(t, first, second)
	require.True(t, strings.Compare(first.Key(), second.Key()) < 0, "push keys should sort by creation")
}

func TestGormStore_ChildrenAndQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	parent := store.Join("users", "u1", "cards")

	require.NoError(t, s.Set(ctx, parent.Child("b"), item{Name: "Black Lotus", Category: "magic"}))
	require.NoError(t, s.Set(ctx, parent.Child("a"), item{Name: "Charizard", Category: "pokemon"}))
	require.NoError(t, s.Set(ctx, parent.Child("c"), item{Name: "Pikachu", Category: "pokemon"}))
	require.NoError(t, s.Set(ctx, parent.Child("c").Child("nested"), item{Name: "not a child"}))
	require.NoError(t, s.Set(ctx, store.Join("users", "u2", "cards", "x"), item{Name: "other owner", Category: "pokemon"}))

	children, err := s.Children(ctx, parent)
	require.NoError(t, err)
	require.Len(t, children, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{children[0].Key, children[1].Key, children[2].Key})

	var decoded item
	require.NoError(t, children[1].Decode(&decoded))
	require.Equal(t, "Black Lotus", decoded.Name)

	pokemon, err := s.Query(ctx, parent, "category", "pokemon")
	require.NoError(t, err)
	require.Len(t, pokemon, 2)
	require.Equal(t, "a", pokemon[0].Key)
	require.Equal(t, "c", pokemon[1].Key)

	_, err = s.Query(ctx, parent, "category') OR 1=1 --", "x")
	require.ErrorIs(t, err, store.ErrInvalidField)

	empty, err := s.Children(ctx, store.Join("users", "nobody", "cards"))
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestGormStore_Find(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, store.Join("users", "u1", "collection", "stats"), item{}))
	require.NoError(t, s.Set(ctx, store.Join("users", "u2", "collection", "stats"), item{}))
	require.NoError(t, s.Set(ctx, store.Join("users", "u2", "profile"), item{}))
	require.NoError(t, s.Set(ctx, store.Join("elsewhere", "stats"), item{}))

	paths, err := s.Find(ctx, store.Path("users"), "stats")
	require.NoError(t, err)
	require.Equal(t, []store.Path{
		"users/u1/collection/stats",
		"users/u2/collection/stats",
	}, paths)
}
