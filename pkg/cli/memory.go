package cli

import (
	"context"
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/ahammadshawki8/chimera/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdMemory(app *appConfig) *cli.Command {
	var workspaceID string

	return &cli.Command{
		Name:    "memory",
		Aliases: []string{"mem"},
		Usage:   "Manage workspace memories",
		Flags:   []cli.Flag{workspaceFlag(&workspaceID)},
		Commands: []*cli.Command{
			cmdMemoryCreate(app, &workspaceID),
			cmdMemoryGet(app, &workspaceID),
			cmdMemoryList(app, &workspaceID),
			cmdMemoryUpdate(app, &workspaceID),
			cmdMemoryDelete(app, &workspaceID),
			cmdMemoryReEmbed(app, &workspaceID),
			cmdMemorySearch(app, &workspaceID),
		},
	}
}

func cmdMemoryCreate(app *appConfig, workspaceID *string) *cli.Command {
	var title, content string
	var tags, metadata []string

	return &cli.Command{
		Name:  "create",
		Usage: "Create a memory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Memory title", Required: true, Destination: &title},
			&cli.StringFlag{Name: "content", Usage: "Memory content, '-' for stdin or '@path' for a file", Required: true, Destination: &content},
			&cli.StringSliceFlag{Name: "tag", Usage: "Tag (repeatable)", Destination: &tags},
			&cli.StringSliceFlag{Name: "meta", Usage: "Metadata key=value (repeatable)", Destination: &metadata},
		},
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			body, err := readContent(content)
			if err != nil {
				return err
			}
			meta, err := parseMetadata(metadata)
			if err != nil {
				return err
			}

			res, err := s.uc.Memory.CreateMemory(ctx, *workspaceID, usecase.CreateMemoryInput{
				Title:    title,
				Content:  body,
				Tags:     tags,
				Metadata: meta,
			})
			if err != nil {
				return err
			}
			return s.printer.MemoryResult(res)
		}),
	}
}

func cmdMemoryGet(app *appConfig, workspaceID *string) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show a memory",
		ArgsUsage: "MEMORY_ID",
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			id, err := requireArg(c, 0, "memory_id")
			if err != nil {
				return err
			}
			mem, err := s.uc.Memory.GetMemory(ctx, *workspaceID, model.MemoryID(id))
			if err != nil {
				return err
			}
			return s.printer.Memory(mem)
		}),
	}
}

func cmdMemoryList(app *appConfig, workspaceID *string) *cli.Command {
	var tags []string
	var sortKey string
	var limit int

	return &cli.Command{
		Name:  "list",
		Usage: "List memories",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "tag", Usage: "Keep memories carrying any of these tags", Destination: &tags},
			&cli.StringFlag{Name: "sort", Usage: "Order (recent, title)", Value: string(types.MemorySortRecent), Destination: &sortKey},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of memories (0 for all)", Destination: &limit},
		},
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			sort := types.MemorySort(sortKey).Normalize()
			if !sort.IsValid() {
				return goerr.Wrap(model.ErrValidation, "invalid sort", goerr.V("sort", sortKey))
			}

			memories, err := s.uc.Memory.ListMemories(ctx, *workspaceID,
				interfaces.WithTags(tags...),
				interfaces.WithSort(sort),
				interfaces.WithLimit(limit),
			)
			if err != nil {
				return err
			}
			return s.printer.Memories(memories)
		}),
	}
}

func cmdMemoryUpdate(app *appConfig, workspaceID *string) *cli.Command {
	var title, content string
	var tags, metadata []string
	var expectedVersion int

	return &cli.Command{
		Name:      "update",
		Usage:     "Update fields of a memory",
		ArgsUsage: "MEMORY_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "New title", Destination: &title},
			&cli.StringFlag{Name: "content", Usage: "New content, '-' for stdin or '@path' for a file", Destination: &content},
			&cli.StringSliceFlag{Name: "tag", Usage: "Replace tags (repeatable, pass an empty value to clear)", Destination: &tags},
			&cli.StringSliceFlag{Name: "meta", Usage: "Replace metadata with key=value pairs (repeatable)", Destination: &metadata},
			&cli.IntFlag{Name: "expected-version", Usage: "Fail unless the stored version matches", Destination: &expectedVersion},
		},
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			id, err := requireArg(c, 0, "memory_id")
			if err != nil {
				return err
			}

			patch := model.MemoryPatch{ExpectedVersion: int64(expectedVersion)}
			if c.IsSet("title") {
				patch.Title = &title
			}
			if c.IsSet("content") {
				body, err := readContent(content)
				if err != nil {
					return err
				}
				patch.Content = &body
			}
			if c.IsSet("tag") {
				patch.Tags = &tags
			}
			if c.IsSet("meta") {
				meta, err := parseMetadata(metadata)
				if err != nil {
					return err
				}
				patch.Metadata = meta
			}

			res, err := s.uc.Memory.UpdateMemory(ctx, *workspaceID, model.MemoryID(id), patch)
			if err != nil {
				return err
			}
			return s.printer.MemoryResult(res)
		}),
	}
}

func cmdMemoryDelete(app *appConfig, workspaceID *string) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a memory and remove it from every conversation",
		ArgsUsage: "MEMORY_ID",
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			id, err := requireArg(c, 0, "memory_id")
			if err != nil {
				return err
			}
			if err := s.uc.Memory.DeleteMemory(ctx, *workspaceID, model.MemoryID(id)); err != nil {
				return err
			}
			s.printer.Done("deleted memory %s", id)
			return nil
		}),
	}
}

func cmdMemoryReEmbed(app *appConfig, workspaceID *string) *cli.Command {
	return &cli.Command{
		Name:      "reembed",
		Usage:     "Regenerate the embedding of a memory",
		ArgsUsage: "MEMORY_ID",
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			id, err := requireArg(c, 0, "memory_id")
			if err != nil {
				return err
			}
			mem, err := s.uc.Memory.ReEmbedMemory(ctx, *workspaceID, model.MemoryID(id))
			if err != nil {
				return err
			}
			return s.printer.Memory(mem)
		}),
	}
}

func cmdMemorySearch(app *appConfig, workspaceID *string) *cli.Command {
	var topK int

	return &cli.Command{
		Name:      "search",
		Usage:     "Rank memories by similarity to a query; without a query list the most recent",
		ArgsUsage: "[QUERY...]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "top-k", Aliases: []string{"k"}, Usage: "Number of results", Destination: &topK},
		},
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			query := strings.Join(c.Args().Slice(), " ")
			results, err := s.uc.Memory.SearchMemories(ctx, *workspaceID, query, topK)
			if err != nil {
				return err
			}
			return s.printer.SearchResults(results)
		}),
	}
}
