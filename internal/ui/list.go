package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

var (
	_ list.Item = menuItem{}
	_ list.Item = memberItem{}
	_ list.Item = bookItem{}
)

// menuItem is one entry of the dashboard menu.
type menuItem struct {
	title  string
	desc   string
	target Screen
}

func (i menuItem) FilterValue() string { return i.title }
func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }

// memberItem wraps [models.Member] to implement [list.Item].
type memberItem struct {
	member models.Member
}

func (i memberItem) FilterValue() string { return i.member.Name }
func (i memberItem) Title() string       { return i.member.Name }
func (i memberItem) Description() string {
	desc := fmt.Sprintf("%s • %s • %s", i.member.Phone, i.member.Status, i.member.Role)
	if joined := shared.FormatDate(i.member.JoiningDate); joined != "" {
		desc = fmt.Sprintf("%s • joined %s", desc, joined)
	}
	return desc
}

// bookItem wraps [models.Book] to implement [list.Item].
type bookItem struct {
	book models.Book
}

func (i bookItem) FilterValue() string { return i.book.Title }
func (i bookItem) Title() string       { return i.book.Title }
func (i bookItem) Description() string {
	return fmt.Sprintf("%s • %s", i.book.Author, i.book.Category)
}

func memberItems(members []models.Member) []list.Item {
	items := make([]list.Item, len(members))
	for i, m := range members {
		items[i] = memberItem{member: m}
	}
	return items
}

func bookItems(books []models.Book) []list.Item {
	items := make([]list.Item, len(books))
	for i, b := range books {
		items[i] = bookItem{book: b}
	}
	return items
}

// selectedID returns the id of the highlighted member or book.
func selectedID(l list.Model) (string, string) {
	switch item := l.SelectedItem().(type) {
	case memberItem:
		return item.member.ID, item.member.Name
	case bookItem:
		return item.book.ID, item.book.Title
	}
	return "", ""
}
