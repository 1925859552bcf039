package cli

import (
	"context"
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdConversation(app *appConfig) *cli.Command {
	var workspaceID string

	return &cli.Command{
		Name:    "conversation",
		Aliases: []string{"conv"},
		Usage:   "Chat with a model using injected memories",
		Flags:   []cli.Flag{workspaceFlag(&workspaceID)},
		Commands: []*cli.Command{
			cmdConversationCreate(app, &workspaceID),
			cmdConversationList(app, &workspaceID),
			cmdConversationDelete(app, &workspaceID),
			cmdConversationSend(app, &workspaceID),
			cmdConversationContext(app, &workspaceID),
			cmdConversationMessages(app, &workspaceID),
			cmdConversationPin(app, &workspaceID, true),
			cmdConversationPin(app, &workspaceID, false),
			cmdConversationDeleteMessage(app, &workspaceID),
		},
	}
}

func cmdConversationCreate(app *appConfig, workspaceID *string) *cli.Command {
	var title, modelID string

	return &cli.Command{
		Name:  "create",
		Usage: "Start a conversation bound to a model",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Conversation title", Destination: &title},
			&cli.StringFlag{Name: "model", Usage: "Model ID", Value: "echo", Destination: &modelID},
		},
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			conv, err := s.uc.Conversation.CreateConversation(ctx, *workspaceID, title, modelID)
			if err != nil {
				return err
			}
			return s.printer.Conversation(conv)
		}),
	}
}

func cmdConversationList(app *appConfig, workspaceID *string) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List conversations, most recently active first",
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			convs, err := s.uc.Conversation.ListConversations(ctx, *workspaceID)
			if err != nil {
				return err
			}
			return s.printer.Conversations(convs)
		}),
	}
}

func cmdConversationDelete(app *appConfig, workspaceID *string) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a conversation with its messages and injections",
		ArgsUsage: "CONVERSATION_ID",
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			id, err := requireArg(c, 0, "conversation_id")
			if err != nil {
				return err
			}
			if err := s.uc.Conversation.DeleteConversation(ctx, *workspaceID, model.ConversationID(id)); err != nil {
				return err
			}
			s.printer.Done("deleted conversation %s", id)
			return nil
		}),
	}
}

// contextFlags are the per call overrides of context assembly
type contextFlags struct {
	preamble      string
	historyWindow int
	tokenBudget   int
}

func (x *contextFlags) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "system", Usage: "Override the system preamble", Destination: &x.preamble},
		&cli.IntFlag{Name: "history", Usage: "Override the history window (negative for none)", Destination: &x.historyWindow},
		&cli.IntFlag{Name: "budget", Usage: "Override the token budget", Destination: &x.tokenBudget},
	}
}

func (x *contextFlags) Options(c *cli.Command) []usecase.ContextOption {
	var opts []usecase.ContextOption
	if c.IsSet("system") {
		opts = append(opts, usecase.WithPreamble(x.preamble))
	}
	if c.IsSet("history") {
		opts = append(opts, usecase.WithHistoryWindow(x.historyWindow))
	}
	if c.IsSet("budget") {
		opts = append(opts, usecase.WithTokenBudget(x.tokenBudget))
	}
	return opts
}

func cmdConversationSend(app *appConfig, workspaceID *string) *cli.Command {
	var overrides contextFlags
	var autoExtract bool

	flags := append(overrides.Flags(),
		&cli.BoolFlag{Name: "remember", Usage: "Store important facts of this exchange as memories", Destination: &autoExtract},
	)

	return &cli.Command{
		Name:      "send",
		Usage:     "Send a message and print the reply",
		ArgsUsage: "CONVERSATION_ID MESSAGE...",
		Flags:     flags,
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			id, err := requireArg(c, 0, "conversation_id")
			if err != nil {
				return err
			}
			text, err := readContent(strings.Join(c.Args().Tail(), " "))
			if err != nil {
				return err
			}

			opts := overrides.Options(c)
			if c.IsSet("remember") {
				opts = append(opts, usecase.WithAutoExtract(autoExtract))
			}

			res, err := s.uc.Context.SendMessage(ctx, *workspaceID, model.ConversationID(id), text, opts...)
			if err != nil {
				return err
			}
			return s.printer.SendResult(res)
		}),
	}
}

func cmdConversationContext(app *appConfig, workspaceID *string) *cli.Command {
	var overrides contextFlags

	return &cli.Command{
		Name:      "context",
		Usage:     "Show the context that would be sent with a message",
		ArgsUsage: "CONVERSATION_ID [MESSAGE...]",
		Flags:     overrides.Flags(),
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			id, err := requireArg(c, 0, "conversation_id")
			if err != nil {
				return err
			}
			ac, err := s.uc.Context.BuildContext(ctx, *workspaceID, model.ConversationID(id),
				strings.Join(c.Args().Tail(), " "), overrides.Options(c)...)
			if err != nil {
				return err
			}
			return s.printer.Context(ac)
		}),
	}
}

func cmdConversationMessages(app *appConfig, workspaceID *string) *cli.Command {
	var limit int

	return &cli.Command{
		Name:      "messages",
		Usage:     "Show the messages of a conversation",
		ArgsUsage: "CONVERSATION_ID",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Show only the last N messages (0 for all)", Destination: &limit},
		},
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			id, err := requireArg(c, 0, "conversation_id")
			if err != nil {
				return err
			}
			msgs, err := s.uc.Conversation.ListMessages(ctx, *workspaceID, model.ConversationID(id), limit)
			if err != nil {
				return err
			}
			return s.printer.Messages(msgs)
		}),
	}
}

func cmdConversationPin(app *appConfig, workspaceID *string, pinned bool) *cli.Command {
	name, usage := "pin", "Pin a message"
	if !pinned {
		name, usage = "unpin", "Unpin a message"
	}

	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "CONVERSATION_ID MESSAGE_ID",
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			convID, err := requireArg(c, 0, "conversation_id")
			if err != nil {
				return err
			}
			msgID, err := requireArg(c, 1, "message_id")
			if err != nil {
				return err
			}
			msg, err := s.uc.Conversation.PinMessage(ctx, *workspaceID,
				model.ConversationID(convID), model.MessageID(msgID), pinned)
			if err != nil {
				return err
			}
			return s.printer.Message(msg)
		}),
	}
}

func cmdConversationDeleteMessage(app *appConfig, workspaceID *string) *cli.Command {
	return &cli.Command{
		Name:      "delete-message",
		Usage:     "Delete one message from a conversation",
		ArgsUsage: "CONVERSATION_ID MESSAGE_ID",
		Action: app.withSession(func(ctx context.Context, c *cli.Command, s *session) error {
			convID, err := requireArg(c, 0, "conversation_id")
			if err != nil {
				return err
			}
			msgID, err := requireArg(c, 1, "message_id")
			if err != nil {
				return err
			}
			if err := s.uc.Conversation.DeleteMessage(ctx, *workspaceID,
				model.ConversationID(convID), model.MessageID(msgID)); err != nil {
				return err
			}
			s.printer.Done("deleted message %s", msgID)
			return nil
		}),
	}
}
