package editor

import (
	"errors"
	"fmt"

	"github.com/Roelanb/autoremove-webui/internal/config"
)

// CardID and RowID identify task cards and strategy rows. Ids are never
// reused, so an id held across a re-render simply stops matching.
type (
	CardID int
	RowID  int
)

type TaskField int

const (
	FieldName TaskField = iota
	FieldClient
	FieldHost
	FieldUsername
	FieldPassword
)

type StrategyField int

const (
	FieldStrategyName StrategyField = iota
	FieldCategories
	FieldRemove
)

var (
	ErrUnknownCard = errors.New("unknown task card")
	ErrUnknownRow  = errors.New("unknown strategy row")
)

// PlaceholderText is shown instead of cards when there are no tasks.
const PlaceholderText = "No tasks. Add one below or switch to Raw YAML."

// Card is the live form state of one task. Values are kept exactly as typed.
type Card struct {
	ID         CardID
	Name       string
	Client     config.Client
	Host       string
	Username   string
	Password   string
	DeleteData bool
	rows       []RowID
}

// Row is the live form state of one strategy.
type Row struct {
	ID         RowID
	Card       CardID
	Name       string
	Categories string
	Remove     string
}

// Document is the form container: an arena of cards and rows plus their
// display order. It is only touched from the editor's event loop.
type Document struct {
	cards       map[CardID]*Card
	rows        map[RowID]*Row
	order       []CardID
	placeholder bool
	nextCard    CardID
	nextRow     RowID
	version     int
}

func NewDocument() *Document {
	return &Document{
		cards: map[CardID]*Card{},
		rows:  map[RowID]*Row{},
	}
}

// Version increases on every mutation.
func (d *Document) Version() int { return d.version }

// Placeholder reports whether the empty-state text is showing.
func (d *Document) Placeholder() bool { return d.placeholder }

// Cards returns card ids in document order.
func (d *Document) Cards() []CardID {
	return append([]CardID(nil), d.order...)
}

// Card returns a copy of the card.
func (d *Document) Card(id CardID) (Card, bool) {
	c, ok := d.cards[id]
	if !ok {
		return Card{}, false
	}
	out := *c
	out.rows = nil
	return out, true
}

// Rows returns copies of a card's strategy rows in document order.
func (d *Document) Rows(id CardID) []Row {
	c, ok := d.cards[id]
	if !ok {
		return nil
	}
	out := make([]Row, 0, len(c.rows))
	for _, rid := range c.rows {
		out = append(out, *d.rows[rid])
	}
	return out
}

func (d *Document) reset() {
	d.cards = map[CardID]*Card{}
	d.rows = map[RowID]*Row{}
	d.order = nil
	d.placeholder = false
	d.version++
}

func (d *Document) appendCard(t config.Task) CardID {
	d.nextCard++
	c := &Card{
		ID:         d.nextCard,
		Name:       t.Name,
		Client:     config.NormalizeClient(string(t.Client)),
		Host:       t.Host,
		Username:   t.Username,
		Password:   t.Password,
		DeleteData: t.DeleteData,
	}
	d.cards[c.ID] = c
	d.order = append(d.order, c.ID)
	for _, s := range t.Strategies {
		d.appendRow(c, s)
	}
	d.version++
	return c.ID
}

func (d *Document) appendRow(c *Card, s config.Strategy) RowID {
	d.nextRow++
	r := &Row{ID: d.nextRow, Card: c.ID, Name: s.Name, Categories: s.Categories, Remove: s.Remove}
	d.rows[r.ID] = r
	c.rows = append(c.rows, r.ID)
	d.version++
	return r.ID
}

// AddStrategy appends an empty strategy row to the card.
func (d *Document) AddStrategy(id CardID) (RowID, bool) {
	c, ok := d.cards[id]
	if !ok {
		return 0, false
	}
	return d.appendRow(c, config.Strategy{}), true
}

// RemoveStrategy removes one row. Unknown ids are ignored.
func (d *Document) RemoveStrategy(id RowID) bool {
	r, ok := d.rows[id]
	if !ok {
		return false
	}
	c := d.cards[r.Card]
	for i, rid := range c.rows {
		if rid == id {
			c.rows = append(c.rows[:i], c.rows[i+1:]...)
			break
		}
	}
	delete(d.rows, id)
	d.version++
	return true
}

// RemoveTask removes a whole card with its rows. Unknown ids are ignored.
func (d *Document) RemoveTask(id CardID) bool {
	c, ok := d.cards[id]
	if !ok {
		return false
	}
	for _, rid := range c.rows {
		delete(d.rows, rid)
	}
	for i, cid := range d.order {
		if cid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	delete(d.cards, id)
	d.version++
	return true
}

func (d *Document) SetTaskField(id CardID, f TaskField, v string) error {
	c, ok := d.cards[id]
	if !ok {
		return ErrUnknownCard
	}
	switch f {
	case FieldName:
		c.Name = v
	case FieldClient:
		cl := config.Client(v)
		if !cl.Valid() {
			return fmt.Errorf("unsupported client %q", v)
		}
		c.Client = cl
	case FieldHost:
		c.Host = v
	case FieldUsername:
		c.Username = v
	case FieldPassword:
		c.Password = v
	default:
		return fmt.Errorf("unknown task field %d", f)
	}
	d.version++
	return nil
}

func (d *Document) SetDeleteData(id CardID, on bool) error {
	c, ok := d.cards[id]
	if !ok {
		return ErrUnknownCard
	}
	c.DeleteData = on
	d.version++
	return nil
}

func (d *Document) SetStrategyField(id RowID, f StrategyField, v string) error {
	r, ok := d.rows[id]
	if !ok {
		return ErrUnknownRow
	}
	switch f {
	case FieldStrategyName:
		r.Name = v
	case FieldCategories:
		r.Categories = v
	case FieldRemove:
		r.Remove = v
	default:
		return fmt.Errorf("unknown strategy field %d", f)
	}
	d.version++
	return nil
}
