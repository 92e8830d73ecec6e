package service

import (
	"fmt"
	"slices"

	"github.com/spec-kit/isp-workboard/internal/domain"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

// boardIndex groups ticket IDs by column. It is derived from ticket status
// and only TicketService mutates it, inside the same critical section as the
// matching repository write.
type boardIndex struct {
	columns map[domain.Column][]string
}

func newBoardIndex() *boardIndex {
	b := &boardIndex{columns: make(map[domain.Column][]string, 4)}
	for _, c := range domain.Columns() {
		b.columns[c] = []string{}
	}
	return b
}

// insert prepends id to col.
func (b *boardIndex) insert(id string, col domain.Column) {
	b.columns[col] = slices.Insert(b.columns[col], 0, id)
}

// remove drops id from col. It is only used to roll back an insert.
func (b *boardIndex) remove(id string, col domain.Column) {
	if i := slices.Index(b.columns[col], id); i >= 0 {
		b.columns[col] = slices.Delete(b.columns[col], i, i+1)
	}
}

// move takes id out of from and prepends it to to. The returned undo puts
// the board back exactly as it was.
func (b *boardIndex) move(id string, from, to domain.Column) (func(), error) {
	if from == to {
		return nil, apperrors.NewInvalidTransition(
			fmt.Sprintf("ticket %s is already in column %s", id, to),
			map[string]any{"ticket_id": id, "column": to},
		)
	}
	src := b.columns[from]
	i := slices.Index(src, id)
	if i < 0 {
		return nil, apperrors.NewInternalError(fmt.Errorf("board: %s missing from column %s", id, from))
	}
	b.columns[from] = slices.Delete(src, i, i+1)
	b.columns[to] = slices.Insert(b.columns[to], 0, id)

	undo := func() {
		b.columns[to] = slices.Delete(b.columns[to], 0, 1)
		b.columns[from] = slices.Insert(b.columns[from], i, id)
	}
	return undo, nil
}

func (b *boardIndex) column(col domain.Column) []string {
	return slices.Clone(b.columns[col])
}

func (b *boardIndex) snapshot() domain.Board {
	out := make(domain.Board, len(b.columns))
	for c, ids := range b.columns {
		out[c] = slices.Clone(ids)
	}
	return out
}
