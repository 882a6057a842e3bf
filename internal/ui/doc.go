// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides three views over the task engine:
//  1. [FeedView] : Browse the feed, with a banner naming where it came from
//  2. [LessonView] : Read a lesson, fetch its summary (s) or quiz (z), save it (p), mark it complete (c)
//     or open it in a browser (o)
//  3. [PlaylistView] : Browse saved lessons and clear them (x)
//
// [LoadingView] is shown while the feed loads. Progress updates flow through a channel from the engine and
// are read one at a time by a [tea.Cmd], so the feed never blocks the event loop.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the
// [Msg] union type. It only talks to the [Engine] interface and never to storage directly.
package ui
