package cli

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/service/export"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/ahammadshawki8/chimera/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdActivity(app *appConfig) *cli.Command {
	var workspaceID string
	var limit int

	return &cli.Command{
		Name:  "activity",
		Usage: "Show the workspace activity feed",
		Flags: []cli.Flag{workspaceFlag(&workspaceID)},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent activity, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of entries (0 for all)", Value: 50, Destination: &limit},
				},
				Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
					activities, err := s.uc.Activity.ListActivities(ctx, workspaceID, limit)
					if err != nil {
						return err
					}
					return s.printer.Activities(activities)
				}),
			},
		},
	}
}

func cmdWorkspace(app *appConfig) *cli.Command {
	var workspaceID string
	var confirm bool

	return &cli.Command{
		Name:  "workspace",
		Usage: "Workspace wide operations",
		Flags: []cli.Flag{workspaceFlag(&workspaceID)},
		Commands: []*cli.Command{
			{
				Name:  "purge",
				Usage: "Delete every memory of the workspace",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm the deletion", Destination: &confirm},
				},
				Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
					if !confirm {
						return goerr.New("refusing to purge without --yes", goerr.V("workspace_id", workspaceID))
					}
					n, err := s.uc.Workspace.DeleteWorkspaceMemories(ctx, workspaceID)
					if err != nil {
						return err
					}
					s.printer.Done("deleted %d memories from %s", n, workspaceID)
					return nil
				}),
			},
		},
	}
}

func cmdExport(app *appConfig) *cli.Command {
	var workspaceID string
	var output string

	return &cli.Command{
		Name:  "export",
		Usage: "Export workspace memories as JSON lines",
		Flags: []cli.Flag{
			workspaceFlag(&workspaceID),
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Destination: '-' for stdout, a file path or gs://bucket/object",
				Value:       "-",
				Sources:     cli.EnvVars("CHIMERA_EXPORT_OUTPUT"),
				Destination: &output,
			},
		},
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			target, err := export.ParseTarget(output)
			if err != nil {
				return err
			}

			w, err := export.Open(ctx, target)
			if err != nil {
				return err
			}

			n, err := s.uc.Workspace.ExportWorkspace(ctx, workspaceID, w)
			if err != nil {
				safe.Close(ctx, w, "export target")
				return err
			}
			if err := w.Close(); err != nil {
				return goerr.Wrap(err, "failed to finish export", goerr.V("target", target.String()))
			}

			logging.From(ctx).Info("workspace exported",
				"workspace_id", workspaceID,
				"target", target.String(),
				"count", n)
			s.printer.Done("exported %d memories to %s", n, target)
			return nil
		}),
	}
}
