package tui

import (
	"github.com/Roelanb/autoremove-webui/internal/config"
	"github.com/Roelanb/autoremove-webui/internal/editor"
)

type fieldKind int

const (
	kindName fieldKind = iota
	kindClient
	kindHost
	kindUsername
	kindPassword
	kindDeleteData
	kindStrategyName
	kindCategories
	kindRemove
)

var taskKinds = []fieldKind{kindName, kindClient, kindHost, kindUsername, kindPassword, kindDeleteData}

var rowKinds = []fieldKind{kindStrategyName, kindCategories, kindRemove}

var fieldLabels = map[fieldKind]string{
	kindName:         "Task name",
	kindClient:       "Client",
	kindHost:         "Host",
	kindUsername:     "Username",
	kindPassword:     "Password",
	kindDeleteData:   "Delete data",
	kindStrategyName: "Name",
	kindCategories:   "Categories",
	kindRemove:       "Remove",
}

// target addresses one focusable form field. row is zero for task fields.
type target struct {
	card editor.CardID
	row  editor.RowID
	kind fieldKind
}

func (t target) isText() bool {
	return t.kind != kindClient && t.kind != kindDeleteData
}

// targets lists every focusable field in display order.
func targets(d *editor.Document) []target {
	var out []target
	for _, id := range d.Cards() {
		for _, k := range taskKinds {
			out = append(out, target{card: id, kind: k})
		}
		for _, r := range d.Rows(id) {
			for _, k := range rowKinds {
				out = append(out, target{card: id, row: r.ID, kind: k})
			}
		}
	}
	return out
}

func fieldValue(d *editor.Document, t target) string {
	if t.row != 0 {
		for _, r := range d.Rows(t.card) {
			if r.ID != t.row {
				continue
			}
			switch t.kind {
			case kindStrategyName:
				return r.Name
			case kindCategories:
				return r.Categories
			case kindRemove:
				return r.Remove
			}
		}
		return ""
	}
	c, ok := d.Card(t.card)
	if !ok {
		return ""
	}
	switch t.kind {
	case kindName:
		return c.Name
	case kindClient:
		return string(c.Client)
	case kindHost:
		return c.Host
	case kindUsername:
		return c.Username
	case kindPassword:
		return c.Password
	case kindDeleteData:
		if c.DeleteData {
			return "yes"
		}
		return "no"
	}
	return ""
}

func setFieldValue(d *editor.Document, t target, v string) error {
	switch t.kind {
	case kindName:
		return d.SetTaskField(t.card, editor.FieldName, v)
	case kindClient:
		return d.SetTaskField(t.card, editor.FieldClient, v)
	case kindHost:
		return d.SetTaskField(t.card, editor.FieldHost, v)
	case kindUsername:
		return d.SetTaskField(t.card, editor.FieldUsername, v)
	case kindPassword:
		return d.SetTaskField(t.card, editor.FieldPassword, v)
	case kindStrategyName:
		return d.SetStrategyField(t.row, editor.FieldStrategyName, v)
	case kindCategories:
		return d.SetStrategyField(t.row, editor.FieldCategories, v)
	case kindRemove:
		return d.SetStrategyField(t.row, editor.FieldRemove, v)
	}
	return nil
}

// toggle flips delete_data or advances the client select.
func toggle(d *editor.Document, t target) error {
	c, ok := d.Card(t.card)
	if !ok {
		return editor.ErrUnknownCard
	}
	switch t.kind {
	case kindDeleteData:
		return d.SetDeleteData(t.card, !c.DeleteData)
	case kindClient:
		return d.SetTaskField(t.card, editor.FieldClient, string(nextClient(c.Client)))
	}
	return nil
}

func nextClient(c config.Client) config.Client {
	for i, cl := range config.Clients {
		if cl == c {
			return config.Clients[(i+1)%len(config.Clients)]
		}
	}
	return config.Clients[0]
}

func trimLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}
