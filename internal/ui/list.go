package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/bitesized/internal/models"
)

var (
	_ list.Item = videoItem{}
	_ list.Item = entryItem{}
)

// videoItem wraps [models.Video] to implement [list.Item].
type videoItem struct {
	video models.Video
}

func (i videoItem) FilterValue() string { return i.video.Title + " " + strings.Join(i.video.Tags, " ") }
func (i videoItem) Title() string       { return i.video.Title }
func (i videoItem) Description() string {
	desc := fmt.Sprintf("%d views", i.video.Views)
	if len(i.video.Tags) > 0 {
		desc = fmt.Sprintf("%s • #%s", desc, strings.Join(i.video.Tags, " #"))
	}
	return desc
}

// entryItem wraps [models.PlaylistEntry] to implement [list.Item].
type entryItem struct {
	entry models.PlaylistEntry
}

func (i entryItem) FilterValue() string { return i.entry.Title }
func (i entryItem) Title() string       { return i.entry.Title }
func (i entryItem) Description() string {
	if i.entry.Description != "" {
		return i.entry.Description
	}
	return i.entry.ID
}

func videoItems(videos []models.Video) []list.Item {
	items := make([]list.Item, len(videos))
	for i, v := range videos {
		items[i] = videoItem{video: v}
	}
	return items
}

func entryItems(entries []models.PlaylistEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}
	return items
}
