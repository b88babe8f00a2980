package app

import (
	"time"

	"github.com/jaakkos/okrboard/internal/okr"
)

// Card is one KR as the dashboard shows it. Progress and Display are nil
// when the record's values cannot be read; Error then says why.
type Card struct {
	okr.KeyResultRecord
	Progress *okr.ProgressView `json:"progress,omitempty"`
	Display  *CardDisplay      `json:"display,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// CardDisplay holds the formatted strings of a card.
type CardDisplay struct {
	Current   string `json:"current"`
	Target    string `json:"target"`
	Remaining string `json:"remaining"`
	Ratio     string `json:"ratio"`
	Color     string `json:"color"`
}

// ObjectiveSection is one objective with its cards. Progress is nil when no
// card of the objective is readable, and for the trailing section of KRs
// without objective (Number 0).
type ObjectiveSection struct {
	Number    int                    `json:"number"`
	Objective string                 `json:"objective"`
	Progress  *okr.ObjectiveProgress `json:"progress,omitempty"`
	Cards     []Card                 `json:"cards"`
}

// TeamBoard is the full dashboard of one team tab.
type TeamBoard struct {
	Team        string             `json:"team"`
	LastUpdated string             `json:"last_updated,omitempty"`
	Progress    float64            `json:"progress"`
	Severity    okr.Severity       `json:"severity"`
	Color       string             `json:"color"`
	Objectives  []ObjectiveSection `json:"objectives"`
	KRCount     int                `json:"kr_count"`
	Unreadable  int                `json:"unreadable"`
	LoadedAt    time.Time          `json:"loaded_at"`
}

// Records returns every record of the board in sheet order within sections.
func (b *TeamBoard) Records() []okr.KeyResultRecord {
	var out []okr.KeyResultRecord
	for _, s := range b.Objectives {
		for _, c := range s.Cards {
			out = append(out, c.KeyResultRecord)
		}
	}
	return out
}

// TeamStatus is one row of the overview.
type TeamStatus struct {
	Team        string                  `json:"team"`
	Progress    float64                 `json:"progress"`
	Severity    okr.Severity            `json:"severity"`
	Color       string                  `json:"color"`
	KRCount     int                     `json:"kr_count"`
	Objectives  []okr.ObjectiveProgress `json:"objectives"`
	LastUpdated string                  `json:"last_updated,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// Overview rolls every configured team up into one view. Progress is the
// mean of the teams that loaded.
type Overview struct {
	Title    string       `json:"title"`
	Teams    []TeamStatus `json:"teams"`
	Progress float64      `json:"progress"`
	Severity okr.Severity `json:"severity"`
	LoadedAt time.Time    `json:"loaded_at"`
}

// NewCard derives the card of one record. A FormatError stays on the card.
func NewCard(rec okr.KeyResultRecord) Card {
	card := Card{KeyResultRecord: rec}
	view, err := okr.View(rec)
	if err != nil {
		card.Error = err.Error()
		return card
	}
	card.Progress = &view
	card.Display = &CardDisplay{
		Current:   view.Display(view.Current),
		Target:    view.Display(view.Target),
		Remaining: view.Display(view.Remaining),
		Ratio:     okr.FormatRatio(view.Ratio),
		Color:     view.Severity.Color(),
	}
	return card
}

// BuildBoard turns a fetched tab into a board. It never fails; an empty
// table yields an empty board.
func BuildBoard(team string, table okr.Table, now time.Time) *TeamBoard {
	groups := okr.GroupByObjective(okr.Parse(table))
	sum := okr.Summarize(groups)

	byNumber := make(map[int]okr.ObjectiveProgress, len(sum.Objectives))
	for _, op := range sum.Objectives {
		byNumber[op.Number] = op
	}

	board := &TeamBoard{
		Team:        team,
		LastUpdated: okr.LastUpdated(table),
		Progress:    sum.Progress,
		Severity:    sum.Severity,
		Color:       sum.Severity.Color(),
		LoadedAt:    now,
	}
	for _, g := range groups {
		section := ObjectiveSection{Number: g.Number}
		if g.Objective != nil {
			section.Objective = *g.Objective
			if op, ok := byNumber[g.Number]; ok {
				section.Progress = &op
			}
		}
		for _, rec := range g.Records {
			card := NewCard(rec)
			if card.Error != "" {
				board.Unreadable++
			}
			section.Cards = append(section.Cards, card)
		}
		board.KRCount += len(g.Records)
		board.Objectives = append(board.Objectives, section)
	}
	return board
}
