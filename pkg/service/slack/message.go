package slack

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/slack-go/slack"
)

// maxSectionBytes is Slack's limit for the text of a section block
const maxSectionBytes = 3000

var activityIcons = map[types.ActivityType]string{
	types.ActivityMemoryCreated:       ":brain:",
	types.ActivityMemoryUpdated:       ":pencil2:",
	types.ActivityMemoryDeleted:       ":wastebasket:",
	types.ActivityMemoryInjected:      ":syringe:",
	types.ActivityMemoryRemoved:       ":heavy_minus_sign:",
	types.ActivityConversationCreated: ":speech_balloon:",
	types.ActivityMessageSent:         ":incoming_envelope:",
}

// activityText is the plain text fallback used in notifications
func activityText(a *model.Activity) string {
	return fmt.Sprintf("[%s] %s", a.WorkspaceID, a.Description)
}

func buildActivityBlocks(a *model.Activity) []slack.Block {
	icon, ok := activityIcons[a.Type]
	if !ok {
		icon = ":information_source:"
	}

	header := fmt.Sprintf("%s *%s*\n%s", icon, a.Type, a.Description)
	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncateToMaxBytes(header, maxSectionBytes), false, false),
			nil, nil,
		),
	}

	elements := []slack.MixedElement{
		slack.NewTextBlockObject(slack.MarkdownType, "workspace: `"+a.WorkspaceID+"`", false, false),
	}
	if len(a.Metadata) > 0 {
		keys := make([]string, 0, len(a.Metadata))
		for k := range a.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, a.Metadata[k]))
		}
		elements = append(elements, slack.NewTextBlockObject(slack.PlainTextType,
			truncateToMaxBytes(strings.Join(pairs, ", "), maxSectionBytes), false, false))
	}
	blocks = append(blocks, slack.NewContextBlock("", elements...))

	return blocks
}

// truncateToMaxBytes cuts s to at most maxBytes without splitting a UTF-8 sequence
func truncateToMaxBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
