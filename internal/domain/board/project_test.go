package board

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProject(t *testing.T) *Project {
	t.Helper()
	project, err := NewProject(uuid.New(), "Alice", "Roadmap")
	require.NoError(t, err)
	project.ClearDomainEvents()
	return project
}

// addListWithCards seeds a list with cards titled after the given names and
// returns the list id and the card ids in order
func addListWithCards(t *testing.T, p *Project, listTitle string, cardTitles ...string) (string, []string) {
	t.Helper()
	list, err := p.AddList(listTitle, "Alice")
	require.NoError(t, err)
	ids := make([]string, 0, len(cardTitles))
	for _, title := range cardTitles {
		card, err := p.AddCard(list.ID, title, "Alice")
		require.NoError(t, err)
		ids = append(ids, card.ID)
	}
	return list.ID, ids
}

func listTitles(p *Project) []string {
	titles := make([]string, len(p.Lists))
	for i, l := range p.Lists {
		titles[i] = l.Title
	}
	return titles
}

func cardIDs(p *Project, listID string) []string {
	list := p.findList(listID)
	ids := make([]string, len(list.Cards))
	for i, c := range list.Cards {
		ids[i] = c.ID
	}
	return ids
}

func TestNewProject(t *testing.T) {
	ownerID := uuid.New()

	t.Run("creates project with owner as first member", func(t *testing.T) {
		project, err := NewProject(ownerID, "Alice", "Roadmap")
		require.NoError(t, err)
		require.NotNil(t, project)

		assert.Equal(t, "Roadmap", project.Title)
		assert.Equal(t, ownerID, project.OwnerID)
		assert.Equal(t, StringArray{ownerID.String()}, project.Members)
		assert.Empty(t, project.Lists)
		assert.Empty(t, project.DraggingLists)
		assert.Empty(t, project.DraggingCards)
		assert.True(t, project.IsMember(ownerID))
	})

	t.Run("publishes ProjectCreated event", func(t *testing.T) {
		project, err := NewProject(ownerID, "Alice", "Roadmap")
		require.NoError(t, err)

		events := project.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProjectCreated, events[0].EventType())
		assert.Equal(t, "Alice", events[0].Actor())
	})

	t.Run("fails with empty title", func(t *testing.T) {
		_, err := NewProject(ownerID, "Alice", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("fails with nil owner", func(t *testing.T) {
		_, err := NewProject(uuid.Nil, "Alice", "Roadmap")
		require.Error(t, err)
	})
}

func TestMoveList(t *testing.T) {
	t.Run("moves first list to the end", func(t *testing.T) {
		p := newTestProject(t)
		for _, title := range []string{"A", "B", "C"} {
			_, err := p.AddList(title, "Alice")
			require.NoError(t, err)
		}

		require.NoError(t, p.MoveList(0, 2, "Alice"))
		assert.Equal(t, []string{"B", "C", "A"}, listTitles(p))
	})

	t.Run("relocates element and preserves relative order for all index pairs", func(t *testing.T) {
		const n = 5
		for src := 0; src < n; src++ {
			for dst := 0; dst < n; dst++ {
				p := newTestProject(t)
				var titles []string
				for i := 0; i < n; i++ {
					title := fmt.Sprintf("L%d", i)
					titles = append(titles, title)
					_, err := p.AddList(title, "Alice")
					require.NoError(t, err)
				}

				require.NoError(t, p.MoveList(src, dst, "Alice"))

				got := listTitles(p)
				require.Len(t, got, n)
				assert.Equal(t, titles[src], got[dst], "moved element should land on destination index (src=%d dst=%d)", src, dst)

				var wantRest, gotRest []string
				for i, title := range titles {
					if i != src {
						wantRest = append(wantRest, title)
					}
				}
				for i, title := range got {
					if i != dst {
						gotRest = append(gotRest, title)
					}
				}
				assert.Equal(t, wantRest, gotRest, "untouched elements should preserve relative order (src=%d dst=%d)", src, dst)
			}
		}
	})

	t.Run("rejects out of range indices", func(t *testing.T) {
		p := newTestProject(t)
		_, err := p.AddList("A", "Alice")
		require.NoError(t, err)

		assert.Error(t, p.MoveList(0, 1, "Alice"))
		assert.Error(t, p.MoveList(-1, 0, "Alice"))
		assert.Error(t, p.MoveList(1, 0, "Alice"))
	})

	t.Run("same index is a no-op", func(t *testing.T) {
		p := newTestProject(t)
		_, err := p.AddList("A", "Alice")
		require.NoError(t, err)
		version := p.Version

		require.NoError(t, p.MoveList(0, 0, "Alice"))
		assert.Equal(t, version, p.Version)
	})
}

func TestMoveCard(t *testing.T) {
	t.Run("intra-list move relocates card and preserves order for all pairs", func(t *testing.T) {
		const n = 4
		for src := 0; src < n; src++ {
			for dst := 0; dst < n; dst++ {
				p := newTestProject(t)
				listID, ids := addListWithCards(t, p, "Todo", "c0", "c1", "c2", "c3")

				require.NoError(t, p.MoveCard(listID, src, listID, dst, "Alice"))

				got := cardIDs(p, listID)
				require.Len(t, got, n)
				assert.Equal(t, ids[src], got[dst])

				var wantRest, gotRest []string
				for i, id := range ids {
					if i != src {
						wantRest = append(wantRest, id)
					}
				}
				for i, id := range got {
					if i != dst {
						gotRest = append(gotRest, id)
					}
				}
				assert.Equal(t, wantRest, gotRest)
			}
		}
	})

	t.Run("cross-list move conserves total card count", func(t *testing.T) {
		p := newTestProject(t)
		todoID, todoCards := addListWithCards(t, p, "Todo", "x", "y")
		doneID, _ := addListWithCards(t, p, "Done", "z")
		require.Equal(t, 3, p.TotalCards())

		// move card x (Todo index 0) to Done index 1
		require.NoError(t, p.MoveCard(todoID, 0, doneID, 1, "Alice"))

		assert.Equal(t, 3, p.TotalCards())
		assert.Equal(t, []string{todoCards[1]}, cardIDs(p, todoID))
		done := p.findList(doneID)
		require.Len(t, done.Cards, 2)
		assert.Equal(t, "z", done.Cards[0].Title)
		assert.Equal(t, "x", done.Cards[1].Title)
	})

	t.Run("rejects unknown source list", func(t *testing.T) {
		p := newTestProject(t)
		listID, _ := addListWithCards(t, p, "Todo", "x")
		err := p.MoveCard("missing", 0, listID, 0, "Alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Source list")
	})

	t.Run("rejects out of range source index", func(t *testing.T) {
		p := newTestProject(t)
		listID, _ := addListWithCards(t, p, "Todo", "x")
		assert.Error(t, p.MoveCard(listID, 5, listID, 0, "Alice"))
	})

	t.Run("allows insertion at destination end", func(t *testing.T) {
		p := newTestProject(t)
		todoID, _ := addListWithCards(t, p, "Todo", "x")
		doneID, _ := addListWithCards(t, p, "Done", "z")

		require.NoError(t, p.MoveCard(todoID, 0, doneID, 1, "Alice"))
		done := p.findList(doneID)
		assert.Equal(t, "x", done.Cards[1].Title)
	})
}

func TestMoveAllCards(t *testing.T) {
	t.Run("appends source cards to target and empties source", func(t *testing.T) {
		p := newTestProject(t)
		todoID, _ := addListWithCards(t, p, "Todo", "x", "y")
		doneID, _ := addListWithCards(t, p, "Done", "z")

		require.NoError(t, p.MoveAllCards(todoID, doneID, "Alice"))

		assert.Empty(t, p.findList(todoID).Cards)
		done := p.findList(doneID)
		require.Len(t, done.Cards, 3)
		assert.Equal(t, "z", done.Cards[0].Title)
		assert.Equal(t, "x", done.Cards[1].Title)
		assert.Equal(t, "y", done.Cards[2].Title)
	})

	t.Run("rejects identical source and destination", func(t *testing.T) {
		p := newTestProject(t)
		todoID, _ := addListWithCards(t, p, "Todo", "x")
		assert.Error(t, p.MoveAllCards(todoID, todoID, "Alice"))
	})

	t.Run("rejects unknown lists", func(t *testing.T) {
		p := newTestProject(t)
		todoID, _ := addListWithCards(t, p, "Todo", "x")
		assert.Error(t, p.MoveAllCards(todoID, "missing", "Alice"))
		assert.Error(t, p.MoveAllCards("missing", todoID, "Alice"))
	})
}

func TestTags(t *testing.T) {
	t.Run("removing a tag strips it from cards", func(t *testing.T) {
		p := newTestProject(t)
		listID, ids := addListWithCards(t, p, "Todo", "x")
		tag, err := p.AddTag("urgent", "#ff0000", "Alice")
		require.NoError(t, err)
		keep, err := p.AddTag("later", "#00ff00", "Alice")
		require.NoError(t, err)

		tagIDs := []string{tag.ID, keep.ID}
		require.NoError(t, p.UpdateCard(ids[0], CardPatch{TagIDs: &tagIDs}, "Alice"))

		require.NoError(t, p.RemoveTag(tag.ID, "Alice"))

		card := p.findList(listID).Cards[0]
		assert.Equal(t, []string{keep.ID}, card.TagIDs)
		assert.Len(t, p.Tags, 1)
	})

	t.Run("card update rejects unknown tag reference", func(t *testing.T) {
		p := newTestProject(t)
		_, ids := addListWithCards(t, p, "Todo", "x")
		bad := []string{"missing"}
		err := p.UpdateCard(ids[0], CardPatch{TagIDs: &bad}, "Alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown tag")
	})
}

func TestUpdateCard(t *testing.T) {
	t.Run("applies partial patch", func(t *testing.T) {
		p := newTestProject(t)
		_, ids := addListWithCards(t, p, "Todo", "x")

		title := "renamed"
		complete := true
		todos := []Todo{{ID: "t1", Text: "step one", Done: false}}
		require.NoError(t, p.UpdateCard(ids[0], CardPatch{
			Title:    &title,
			Complete: &complete,
			Todos:    &todos,
		}, "Alice"))

		card, listID := p.findCard(ids[0])
		require.NotNil(t, card)
		assert.NotEmpty(t, listID)
		assert.Equal(t, "renamed", card.Title)
		assert.True(t, card.Complete)
		assert.Equal(t, todos, card.Todos)
	})

	t.Run("fails for unknown card", func(t *testing.T) {
		p := newTestProject(t)
		err := p.UpdateCard("missing", CardPatch{}, "Alice")
		assert.Error(t, err)
	})
}
