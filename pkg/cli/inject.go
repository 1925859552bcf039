package cli

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdInject(app *appConfig) *cli.Command {
	var workspaceID string

	return &cli.Command{
		Name:  "inject",
		Usage: "Manage memories injected into conversations",
		Flags: []cli.Flag{workspaceFlag(&workspaceID)},
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Inject a memory into a conversation",
				ArgsUsage: "CONVERSATION_ID MEMORY_ID",
				Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
					convID, memID, err := linkArgs(c)
					if err != nil {
						return err
					}
					res, err := s.uc.Injection.Inject(ctx, workspaceID, convID, memID)
					if err != nil {
						return err
					}
					if res.Created {
						s.printer.Done("injected %s into %s", memID, convID)
					} else {
						s.printer.Done("%s is already active in %s", memID, convID)
					}
					return nil
				}),
			},
			{
				Name:      "remove",
				Usage:     "Remove a memory from a conversation",
				ArgsUsage: "CONVERSATION_ID MEMORY_ID",
				Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
					convID, memID, err := linkArgs(c)
					if err != nil {
						return err
					}
					if err := s.uc.Injection.Remove(ctx, workspaceID, convID, memID); err != nil {
						return err
					}
					s.printer.Done("removed %s from %s", memID, convID)
					return nil
				}),
			},
			{
				Name:      "list",
				Usage:     "List memories active in a conversation",
				ArgsUsage: "CONVERSATION_ID",
				Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
					convID, err := requireArg(c, 0, "conversation_id")
					if err != nil {
						return err
					}
					links, err := s.uc.Injection.ListActive(ctx, workspaceID, model.ConversationID(convID))
					if err != nil {
						return err
					}
					return s.printer.Links(links)
				}),
			},
		},
	}
}

func linkArgs(c *cli.Command) (model.ConversationID, model.MemoryID, error) {
	convID, err := requireArg(c, 0, "conversation_id")
	if err != nil {
		return "", "", err
	}
	memID, err := requireArg(c, 1, "memory_id")
	if err != nil {
		return "", "", err
	}
	return model.ConversationID(convID), model.MemoryID(memID), nil
}
