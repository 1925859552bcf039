package cli

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/repository/sqlite"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/ahammadshawki8/chimera/pkg/utils/safe"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdMigrate(app *appConfig) *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Prepare the storage backend",
		Commands: []*cli.Command{
			cmdMigrateFirestore(app),
			cmdMigrateSQLite(app),
		},
	}
}

func cmdMigrateFirestore(app *appConfig) *cli.Command {
	var dryRun bool
	var dimension int

	return &cli.Command{
		Name:  "firestore",
		Usage: "Create the Firestore indexes used by queries and vector search",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
			&cli.IntFlag{
				Name:        "vector-dimension",
				Usage:       "Dimension of the memory embedding vector index",
				Value:       model.DefaultEmbeddingDimension,
				Sources:     cli.EnvVars("CHIMERA_EMBEDDING_DIMENSION"),
				Destination: &dimension,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			projectID := app.repository.ProjectID()
			databaseID := app.repository.DatabaseID()
			if projectID == "" {
				return goerr.New("--firestore-project-id is required for migrate firestore")
			}

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"dimension", dimension,
				"dryRun", dryRun)

			indexConfig := getIndexConfig(dimension)

			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer safe.Close(ctx, client, "fireconf client")

			if dryRun {
				plan, err := client.GetMigrationPlan(ctx, indexConfig)
				if err != nil {
					return goerr.Wrap(err, "failed to create migration plan")
				}

				if len(plan.Steps) == 0 {
					logger.Info("No changes required")
					return nil
				}

				for _, step := range plan.Steps {
					logger.Info("Migration step",
						"collection", step.Collection,
						"operation", step.Operation,
						"description", step.Description,
						"destructive", step.Destructive)
				}
				return nil
			}

			logger.Info("Applying migrations")
			if err := client.Migrate(ctx, indexConfig); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			logger.Info("Migrations applied successfully")
			return nil
		},
	}
}

func cmdMigrateSQLite(app *appConfig) *cli.Command {
	return &cli.Command{
		Name:  "sqlite",
		Usage: "Apply pending SQLite schema migrations",
		Action: func(ctx context.Context, c *cli.Command) error {
			path := app.repository.SQLitePath()
			db, err := sqlite.New(ctx, path)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, db, "sqlite database")

			version, dirty, err := db.SchemaVersion()
			if err != nil {
				return err
			}
			logging.Default().Info("SQLite schema is up to date",
				"path", path,
				"version", version,
				"dirty", dirty)
			return nil
		},
	}
}

// getIndexConfig returns the composite and vector indexes. Collection
// names are collection IDs, so they cover the per workspace subcollections.
func getIndexConfig(dimension int) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: "memories",
				Indexes: []fireconf.Index{
					{
						Fields: []fireconf.IndexField{
							{
								Path: "Embedding",
								Vector: &fireconf.VectorConfig{
									Dimension: dimension,
								},
							},
						},
					},
				},
			},
			{
				Name: "injections",
				Indexes: []fireconf.Index{
					// Active links of a conversation in injection order
					{
						Fields: []fireconf.IndexField{
							{Path: "ConversationID", Order: fireconf.OrderAscending},
							{Path: "InjectedAt", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
