package board

import (
	"fmt"
	"time"

	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// DragKind identifies which kind of item a drag gesture targets
type DragKind string

const (
	DragKindList DragKind = "LIST"
	DragKindCard DragKind = "CARD"
)

// Valid reports whether the kind is one of the two supported values
func (k DragKind) Valid() bool {
	return k == DragKindList || k == DragKindCard
}

// Project is the single shared document for one board. All lists, cards,
// tags and active drag markers live inside it; every mutation rewrites the
// affected document column in full, so concurrent writers resolve by
// last write wins at the column level.
type Project struct {
	shared.BaseAggregateRoot
	Title         string      `gorm:"type:varchar(100);not null"`
	OwnerID       uuid.UUID   `gorm:"type:uuid;not null;index"`
	Members       StringArray `gorm:"type:jsonb;not null;default:'[]'"`
	Lists         ListArray   `gorm:"type:jsonb;not null;default:'[]'"`
	Tags          TagArray    `gorm:"type:jsonb;not null;default:'[]'"`
	DraggingLists MarkerArray `gorm:"type:jsonb;not null;default:'[]'"`
	DraggingCards MarkerArray `gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a new board owned by the given user
func NewProject(ownerID uuid.UUID, ownerName, title string) (*Project, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Project owner is required")
	}

	project := &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		OwnerID:           ownerID,
		Members:           StringArray{ownerID.String()},
		Lists:             ListArray{},
		Tags:              TagArray{},
		DraggingLists:     MarkerArray{},
		DraggingCards:     MarkerArray{},
	}
	project.AddDomainEvent(NewProjectCreatedEvent(project, ownerName))

	return project, nil
}

// Rename changes the project title
func (p *Project) Rename(title, actor string) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	p.Title = title
	p.touch(NewProjectChangedEvent(p, actor, "title"))
	return nil
}

// AddMember grants a user access to the board. Adding an existing member
// is a no-op.
func (p *Project) AddMember(userID uuid.UUID, actor string) {
	id := userID.String()
	for _, m := range p.Members {
		if m == id {
			return
		}
	}
	p.Members = append(p.Members, id)
	p.touch(NewProjectChangedEvent(p, actor, "members"))
}

// IsMember reports whether the user may read and mutate the board
func (p *Project) IsMember(userID uuid.UUID) bool {
	id := userID.String()
	for _, m := range p.Members {
		if m == id {
			return true
		}
	}
	return false
}

// AddList appends a new empty list to the end of the board
func (p *Project) AddList(title, actor string) (*List, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	list := List{
		ID:    uuid.New().String(),
		Title: title,
		Cards: []Card{},
	}
	p.Lists = append(p.Lists, list)
	p.touch(NewProjectChangedEvent(p, actor, "lists"))
	return &p.Lists[len(p.Lists)-1], nil
}

// RenameList changes a list's title
func (p *Project) RenameList(listID, title, actor string) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	list := p.findList(listID)
	if list == nil {
		return shared.ErrNotFound
	}
	list.Title = title
	p.touch(NewProjectChangedEvent(p, actor, "lists"))
	return nil
}

// RemoveList deletes a list and all of its cards. The delete is refused
// while another user holds a fresh drag marker on the list.
func (p *Project) RemoveList(listID, actor string, now time.Time, leaseTTL time.Duration) error {
	if holder, locked := p.DraggingLists.lockedBy(listID, now, leaseTTL); locked && holder != actor {
		return lockViolation("delete list", holder)
	}
	for i, list := range p.Lists {
		if list.ID == listID {
			p.Lists = append(p.Lists[:i], p.Lists[i+1:]...)
			p.touch(NewProjectChangedEvent(p, actor, "lists"))
			return nil
		}
	}
	return shared.ErrNotFound
}

// AddCard appends a new card to the end of a list
func (p *Project) AddCard(listID, title, actor string) (*Card, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	list := p.findList(listID)
	if list == nil {
		return nil, shared.ErrNotFound
	}
	card := Card{
		ID:    uuid.New().String(),
		Title: title,
	}
	list.Cards = append(list.Cards, card)
	p.touch(NewProjectChangedEvent(p, actor, "cards"))
	return &list.Cards[len(list.Cards)-1], nil
}

// CardPatch carries the optional field updates for a card; nil fields are
// left untouched
type CardPatch struct {
	Title       *string
	Time        *string
	Description *string
	Owners      *[]string
	TagIDs      *[]string
	Complete    *bool
	Todos       *[]Todo
}

// UpdateCard applies a partial update to a card found by scanning all lists
func (p *Project) UpdateCard(cardID string, patch CardPatch, actor string) error {
	card, _ := p.findCard(cardID)
	if card == nil {
		return shared.ErrNotFound
	}
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return err
		}
		card.Title = *patch.Title
	}
	if patch.Time != nil {
		card.Time = *patch.Time
	}
	if patch.Description != nil {
		card.Description = *patch.Description
	}
	if patch.Owners != nil {
		card.Owners = *patch.Owners
	}
	if patch.TagIDs != nil {
		for _, tagID := range *patch.TagIDs {
			if p.findTag(tagID) == nil {
				return shared.NewDomainError("INVALID_TAG", "Card references an unknown tag")
			}
		}
		card.TagIDs = *patch.TagIDs
	}
	if patch.Complete != nil {
		card.Complete = *patch.Complete
	}
	if patch.Todos != nil {
		card.Todos = *patch.Todos
	}
	p.touch(NewProjectChangedEvent(p, actor, "cards"))
	return nil
}

// RemoveCard deletes a card. The delete is refused while another user
// holds a fresh drag marker on the card.
func (p *Project) RemoveCard(cardID, actor string, now time.Time, leaseTTL time.Duration) error {
	if holder, locked := p.DraggingCards.lockedBy(cardID, now, leaseTTL); locked && holder != actor {
		return lockViolation("delete card", holder)
	}
	for li := range p.Lists {
		for ci, card := range p.Lists[li].Cards {
			if card.ID == cardID {
				cards := p.Lists[li].Cards
				p.Lists[li].Cards = append(cards[:ci], cards[ci+1:]...)
				p.touch(NewProjectChangedEvent(p, actor, "cards"))
				return nil
			}
		}
	}
	return shared.ErrNotFound
}

// AddTag creates a new project tag
func (p *Project) AddTag(name, colorHex, actor string) (*Tag, error) {
	if err := validateTitle(name); err != nil {
		return nil, err
	}
	tag := Tag{
		ID:       uuid.New().String(),
		Name:     name,
		ColorHex: colorHex,
	}
	p.Tags = append(p.Tags, tag)
	p.touch(NewProjectChangedEvent(p, actor, "tags"))
	return &p.Tags[len(p.Tags)-1], nil
}

// RemoveTag deletes a tag and strips it from every card that references it
func (p *Project) RemoveTag(tagID, actor string) error {
	found := false
	for i, tag := range p.Tags {
		if tag.ID == tagID {
			p.Tags = append(p.Tags[:i], p.Tags[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return shared.ErrNotFound
	}
	for li := range p.Lists {
		for ci := range p.Lists[li].Cards {
			card := &p.Lists[li].Cards[ci]
			kept := card.TagIDs[:0]
			for _, id := range card.TagIDs {
				if id != tagID {
					kept = append(kept, id)
				}
			}
			card.TagIDs = kept
		}
	}
	p.touch(NewProjectChangedEvent(p, actor, "tags"))
	return nil
}

// MoveList removes the list at src and reinserts it at dst. Both indices
// refer to the board-level list array; [A,B,C] moved 0 to 2 yields [B,C,A].
func (p *Project) MoveList(src, dst int, actor string) error {
	n := len(p.Lists)
	if src < 0 || src >= n || dst < 0 || dst >= n {
		return shared.NewDomainError("INVALID_INDEX", fmt.Sprintf("List index out of range (have %d lists)", n))
	}
	if src == dst {
		return nil
	}
	moved := p.Lists[src]
	rest := append(p.Lists[:src:src], p.Lists[src+1:]...)
	lists := make(ListArray, 0, n)
	lists = append(lists, rest[:dst]...)
	lists = append(lists, moved)
	lists = append(lists, rest[dst:]...)
	p.Lists = lists
	p.touch(NewListsReorderedEvent(p, actor, src, dst))
	return nil
}

// MoveCard removes the card at srcIdx in the source list and inserts it at
// dstIdx in the destination list. Source and destination may be the same
// list (intra-list reorder) or different lists (cross-list move); the total
// card count across the board is conserved.
func (p *Project) MoveCard(srcListID string, srcIdx int, dstListID string, dstIdx int, actor string) error {
	srcList := p.findList(srcListID)
	if srcList == nil {
		return shared.NewDomainError("NOT_FOUND", "Source list not found")
	}
	dstList := p.findList(dstListID)
	if dstList == nil {
		return shared.NewDomainError("NOT_FOUND", "Destination list not found")
	}
	if srcIdx < 0 || srcIdx >= len(srcList.Cards) {
		return shared.NewDomainError("INVALID_INDEX", fmt.Sprintf("Card index %d out of range in source list", srcIdx))
	}

	moved := srcList.Cards[srcIdx]
	srcList.Cards = append(srcList.Cards[:srcIdx:srcIdx], srcList.Cards[srcIdx+1:]...)

	if dstIdx < 0 || dstIdx > len(dstList.Cards) {
		return shared.NewDomainError("INVALID_INDEX", fmt.Sprintf("Card index %d out of range in destination list", dstIdx))
	}
	cards := make([]Card, 0, len(dstList.Cards)+1)
	cards = append(cards, dstList.Cards[:dstIdx]...)
	cards = append(cards, moved)
	cards = append(cards, dstList.Cards[dstIdx:]...)
	dstList.Cards = cards

	p.touch(NewCardMovedEvent(p, actor, moved.ID, srcListID, dstListID))
	return nil
}

// MoveAllCards appends every card from the source list to the end of the
// destination list and empties the source. Per-card drag locks are not
// consulted here; only the two lists are touched.
func (p *Project) MoveAllCards(srcListID, dstListID, actor string) error {
	if srcListID == dstListID {
		return shared.NewDomainError("INVALID_INPUT", "Source and destination lists are the same")
	}
	srcList := p.findList(srcListID)
	if srcList == nil {
		return shared.NewDomainError("NOT_FOUND", "Source list not found")
	}
	dstList := p.findList(dstListID)
	if dstList == nil {
		return shared.NewDomainError("NOT_FOUND", "Destination list not found")
	}
	dstList.Cards = append(dstList.Cards, srcList.Cards...)
	srcList.Cards = []Card{}
	p.touch(NewCardsBulkMovedEvent(p, actor, srcListID, dstListID, len(dstList.Cards)))
	return nil
}

// BeginDrag records an advisory drag marker for the item. One marker per
// {item, user} pair; re-beginning refreshes the lease. Multiple users may
// hold markers on the same item simultaneously.
func (p *Project) BeginDrag(kind DragKind, itemID, displayName string, now time.Time) error {
	if !kind.Valid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown drag kind")
	}
	if displayName == "" {
		return shared.NewDomainError("INVALID_INPUT", "Drag marker requires a display name")
	}
	marker := DragMarker{ID: itemID, DisplayName: displayName, StartedAt: now}
	switch kind {
	case DragKindList:
		if p.findList(itemID) == nil {
			return shared.ErrNotFound
		}
		p.DraggingLists = p.DraggingLists.union(marker)
	case DragKindCard:
		if card, _ := p.findCard(itemID); card == nil {
			return shared.ErrNotFound
		}
		p.DraggingCards = p.DraggingCards.union(marker)
	}
	p.touch(NewDragStartedEvent(p, displayName, kind, itemID))
	return nil
}

// EndDrag removes the matching drag marker. Always succeeds; removing an
// absent marker is a no-op so a cancelled gesture can end unconditionally.
func (p *Project) EndDrag(kind DragKind, itemID, displayName string) error {
	if !kind.Valid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown drag kind")
	}
	switch kind {
	case DragKindList:
		p.DraggingLists = p.DraggingLists.remove(itemID, displayName)
	case DragKindCard:
		p.DraggingCards = p.DraggingCards.remove(itemID, displayName)
	}
	p.touch(NewDragEndedEvent(p, displayName, kind, itemID))
	return nil
}

// IsLocked reports whether any user holds a fresh drag marker on the item
func (p *Project) IsLocked(kind DragKind, itemID string, now time.Time, leaseTTL time.Duration) bool {
	_, locked := p.LockedBy(kind, itemID, now, leaseTTL)
	return locked
}

// LockedBy returns the display name of the first fresh marker holder for
// the item, if any
func (p *Project) LockedBy(kind DragKind, itemID string, now time.Time, leaseTTL time.Duration) (string, bool) {
	switch kind {
	case DragKindList:
		return p.DraggingLists.lockedBy(itemID, now, leaseTTL)
	case DragKindCard:
		return p.DraggingCards.lockedBy(itemID, now, leaseTTL)
	}
	return "", false
}

// ClearMarkersFor drops every drag marker held by the given user. Invoked
// by the presence layer when the user's realtime connection drops.
func (p *Project) ClearMarkersFor(displayName string) int {
	before := len(p.DraggingLists) + len(p.DraggingCards)
	p.DraggingLists = p.DraggingLists.removeFor(displayName)
	p.DraggingCards = p.DraggingCards.removeFor(displayName)
	removed := before - len(p.DraggingLists) - len(p.DraggingCards)
	if removed > 0 {
		p.touch(NewDragEndedEvent(p, displayName, DragKindCard, ""))
	}
	return removed
}

// PruneStaleMarkers drops markers whose lease expired and reports how many
// were removed
func (p *Project) PruneStaleMarkers(now time.Time, leaseTTL time.Duration) int {
	var removedLists, removedCards int
	p.DraggingLists, removedLists = p.DraggingLists.prune(now, leaseTTL)
	p.DraggingCards, removedCards = p.DraggingCards.prune(now, leaseTTL)
	removed := removedLists + removedCards
	if removed > 0 {
		p.UpdatedAt = now
		p.IncrementVersion()
	}
	return removed
}

// CardAt returns the id of the card at the given index of a list, used to
// validate that a reorder request was computed against the current view
func (p *Project) CardAt(listID string, index int) (string, bool) {
	list := p.findList(listID)
	if list == nil || index < 0 || index >= len(list.Cards) {
		return "", false
	}
	return list.Cards[index].ID, true
}

// ListAt returns the id of the list at the given board index
func (p *Project) ListAt(index int) (string, bool) {
	if index < 0 || index >= len(p.Lists) {
		return "", false
	}
	return p.Lists[index].ID, true
}

// TotalCards returns the number of cards across all lists
func (p *Project) TotalCards() int {
	total := 0
	for _, list := range p.Lists {
		total += len(list.Cards)
	}
	return total
}

func (p *Project) findList(listID string) *List {
	for i := range p.Lists {
		if p.Lists[i].ID == listID {
			return &p.Lists[i]
		}
	}
	return nil
}

// findCard scans all lists in order; card ids are unique within a project
func (p *Project) findCard(cardID string) (*Card, string) {
	for li := range p.Lists {
		for ci := range p.Lists[li].Cards {
			if p.Lists[li].Cards[ci].ID == cardID {
				return &p.Lists[li].Cards[ci], p.Lists[li].ID
			}
		}
	}
	return nil, ""
}

func (p *Project) findTag(tagID string) *Tag {
	for i := range p.Tags {
		if p.Tags[i].ID == tagID {
			return &p.Tags[i]
		}
	}
	return nil
}

func (p *Project) touch(event shared.DomainEvent) {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(event)
}

func lockViolation(action, holder string) error {
	return shared.NewDomainError("ITEM_LOCKED", fmt.Sprintf("Cannot %s: %s is currently moving it", action, holder))
}

func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 100 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 100 characters")
	}
	return nil
}
