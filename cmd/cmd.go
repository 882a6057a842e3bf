// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootCommand builds the application with every command registered.
func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "bitesized",
		Usage:   "Browse, learn from and publish short educational videos",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (default: log.level from config)",
			},
		},
		Before:   r.applyLogLevel,
		Commands: r.register(),
	}
}

// outputFlags are shared by every command that can print JSON.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

// setupCommand handles setup operations for configuration and storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the config file if needed, initialize the SQLite database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles local and backend authentication
func authCommand(r *Runner) *cli.Command {
	credentials := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true},
			&cli.BoolFlag{Name: "remote", Usage: "Use the backend's /auth endpoints instead of local accounts"},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the active session",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and log in with it",
				Flags: append(credentials(),
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "role", Usage: "creator or learner", Value: "learner"},
				),
				Action: r.AuthRegister,
			},
			{
				Name:   "login",
				Usage:  "Log in with an existing account",
				Flags:  credentials(),
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Clear the active session",
				Action: r.AuthLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the active session",
				Flags:  outputFlags(),
				Action: r.AuthWhoami,
			},
		},
	}
}

// feedCommand shows the feed
func feedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "feed",
		Usage:  "Show recommended, latest or demo lessons",
		Flags:  outputFlags(),
		Action: r.Feed,
	}
}

// learnCommand opens a lesson
func learnCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "learn",
		Aliases: []string{"lesson"},
		Usage:   "Open a lesson by video id",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: append(outputFlags(),
			&cli.BoolFlag{Name: "summary", Aliases: []string{"s"}, Usage: "Fetch an AI summary"},
			&cli.BoolFlag{Name: "quiz", Aliases: []string{"z"}, Usage: "Fetch quiz questions"},
			&cli.BoolFlag{Name: "reveal", Usage: "Show quiz answers"},
			&cli.BoolFlag{Name: "save", Usage: "Toggle the lesson in the playlist"},
			&cli.BoolFlag{Name: "complete", Usage: "Mark the lesson as completed"},
			&cli.BoolFlag{Name: "open", Usage: "Open the video in a browser"},
		),
		Action: r.Learn,
	}
}

// courseCommand shows a course
func courseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "course",
		Usage: "Show a course, its lessons and your progress",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  outputFlags(),
		Action: r.Course,
	}
}

// uploadCommand uploads a video as the current creator
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Upload a video as the logged in creator",
		Flags: append(outputFlags(),
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Path to the video file", Required: true},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Video title", Required: true},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Video description"},
			&cli.StringSliceFlag{Name: "tag", Usage: "Tag (repeatable or comma separated)"},
			&cli.StringFlag{Name: "skill-level", Usage: "beginner, intermediate or advanced", Value: "beginner"},
			&cli.StringFlag{Name: "type", Usage: "Content type (detected from the extension when empty)"},
		),
		Action: r.Upload,
	}
}

// playlistCommand manages saved lessons
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"saved"},
		Usage:   "Manage saved lessons",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved lessons",
				Flags:  outputFlags(),
				Action: r.PlaylistList,
			},
			{
				Name:  "toggle",
				Usage: "Save a lesson, or remove it when already saved",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.PlaylistToggle,
			},
			{
				Name:   "clear",
				Usage:  "Remove every saved lesson",
				Action: r.PlaylistClear,
			},
			{
				Name:  "export",
				Usage: "Export saved lessons to one or more formats",
				Flags: append(outputFlags(),
					&cli.StringSliceFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, csv, markdown, txt or html (repeatable)"},
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Directory for exported files"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent export workers (max 5)", Value: 3},
				),
				Action: r.PlaylistExport,
			},
		},
	}
}

// historyCommand shows recently seen tags
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "history",
		Usage:  "Show recently seen tags used for recommendations",
		Flags:  outputFlags(),
		Action: r.History,
	}
}

// apiCommand handles direct backend API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the learning platform backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// serveCommand runs the local mock backend
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run a local mock of the learning platform backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (default: server.host)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (default: server.port)"},
			&cli.StringFlag{Name: "secret", Usage: "HS256 signing key (default: server.jwt_secret)"},
			&cli.BoolFlag{Name: "empty", Usage: "Start without the sample users, videos and course"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}
