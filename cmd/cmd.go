// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ecn/internal/formatter"
	"github.com/desertthunder/ecn/internal/models"
)

func jsonFlags() []cli.Flag {
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

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: csv, markdown, text or json (default: from --output extension)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

func memberFormFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "Full name"},
		&cli.StringFlag{Name: "father-name", Usage: "Father's name"},
		&cli.StringFlag{Name: "dob", Usage: "Date of birth (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "address", Usage: "Postal address"},
		&cli.StringFlag{Name: "phone", Usage: "10 digit phone number"},
		&cli.StringFlag{Name: "email", Usage: "Email address (optional)"},
		&cli.StringFlag{Name: "joining-date", Usage: "Joining date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "status", Usage: "Active or Inactive", Value: string(models.StatusActive)},
		&cli.StringFlag{Name: "role", Usage: "member or admin", Value: string(models.RoleMember)},
		&cli.StringFlag{Name: "image", Usage: "Path to a profile image (sends multipart)"},
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
			{
				Name:  "purge-sessions",
				Usage: "Delete persisted sessions older than a cutoff",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age of the sessions to delete",
						Value: 30 * 24 * time.Hour,
					},
				},
				Action: r.SetupPurgeSessions,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the command-line session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with the admin email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "Admin email address",
						Sources: cli.EnvVars("ECN_EMAIL"),
					},
					&cli.StringFlag{
						Name:    "password",
						Usage:   "Admin password (prefer --password-stdin or the prompt)",
						Sources: cli.EnvVars("ECN_PASSWORD"),
					},
					&cli.BoolFlag{
						Name:  "password-stdin",
						Usage: "Read the password from stdin",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Clear the persisted session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in user",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
		},
	}
}

// membersCommand handles member records
func membersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "members",
		Aliases: []string{"member", "m"},
		Usage:   "Committee member operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all members",
				Flags:  jsonFlags(),
				Action: r.MembersList,
			},
			{
				Name:      "get",
				Usage:     "Show one member",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.MembersGet,
			},
			{
				Name:   "add",
				Usage:  "Add a member",
				Flags:  memberFormFlags(),
				Action: r.MembersAdd,
			},
			{
				Name:      "edit",
				Usage:     "Edit a member; only the flags given are changed",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     memberFormFlags(),
				Action:    r.MembersEdit,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a member",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.MembersDelete,
			},
			{
				Name:      "import",
				Usage:     "Add members from a CSV file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent requests (max 10)",
						Value: 3,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Validate the file without sending anything",
					},
				},
				Action: r.MembersImport,
			},
			{
				Name:   "export",
				Usage:  "Export the member directory",
				Flags:  exportFlags(),
				Action: r.MembersExport,
			},
		},
	}
}

// booksCommand handles library records
func booksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "books",
		Aliases: []string{"book", "b"},
		Usage:   "Library operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all books",
				Flags:  jsonFlags(),
				Action: r.BooksList,
			},
			{
				Name:  "add",
				Usage: "Upload a book with its cover image and PDF",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Book title"},
					&cli.StringFlag{Name: "author", Usage: "Author"},
					&cli.StringFlag{Name: "category", Usage: "Islamic, General, Quran or Hadith", Value: string(models.CategoryIslamic)},
					&cli.StringFlag{Name: "pdf-link", Usage: "External download link (optional)"},
					&cli.StringFlag{Name: "cover", Usage: "Path to the cover image"},
					&cli.StringFlag{Name: "pdf", Usage: "Path to the PDF file"},
				},
				Action: r.BooksAdd,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a book",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.BooksDelete,
			},
			{
				Name:  "export",
				Usage: "Export the library catalogue",
				Flags: append(exportFlags(), &cli.StringFlag{
					Name:  "covers",
					Usage: "Write a markdown shelf with downloaded covers into this directory",
				}),
				Action: r.BooksExport,
			},
		},
	}
}

// activityCommand lists the local audit log
func activityCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "activity",
		Aliases: []string{"log"},
		Usage:   "Show recent changes made from this machine",
		Flags: append(jsonFlags(),
			&cli.StringFlag{
				Name:  "entity",
				Usage: "Only member, book or session entries",
			},
			&cli.StringFlag{
				Name:  "actor",
				Usage: "Only entries by this email",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries",
				Value: 20,
			},
		),
		Action: r.Activity,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the REST API with the stored session",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a path and print the JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
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
				Name:  "dump",
				Usage: "Fetch every member and book into one JSON document",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "save",
						Usage: "Also write the dump to this file",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// serveCommand starts the web dashboard
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (default: server.host)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default: server.port)"},
			&cli.BoolFlag{Name: "open", Usage: "Open the dashboard in a browser"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where the TUI writes its logs",
				Value: "./tmp/ecn-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// exportFormat picks --format, falling back to the --output extension.
func exportFormat(cmd *cli.Command) (formatter.Format, error) {
	if f := cmd.String("format"); f != "" {
		return formatter.ParseFormat(f)
	}
	return formatter.FormatFor(cmd.String("output")), nil
}
