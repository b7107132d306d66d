package tools

import (
	"context"
	"fmt"

	"github.com/quorumbot/quorum/internal/knowledge"
	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
)

// ProfileReader loads a member's indexed documents directly, without a
// similarity search. *knowledge.Store satisfies this.
type ProfileReader interface {
	DocumentsForEntity(ctx context.Context, entityID string) ([]knowledge.Document, error)
}

// MemberProfileInput defines input for the get_member_profile tool.
type MemberProfileInput struct {
	MemberID string `json:"member_id" jsonschema_description:"The member identifier, as returned by search_members"`
}

// MemberProfileOutput is the get_member_profile tool result.
type MemberProfileOutput struct {
	MemberID   string            `json:"member_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Documents  []string          `json:"documents"`
}

// NewMemberProfileTool creates the get_member_profile definition.
func NewMemberProfileTool(reader ProfileReader, logger log.Logger) (*Definition, error) {
	if reader == nil {
		return nil, fmt.Errorf("profile reader is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	def, err := NewTool("get_member_profile",
		"Fetch the full indexed profile of one member by id. "+
			"Use after search_members when the whole profile is needed.",
		func(ctx context.Context, input MemberProfileInput) (MemberProfileOutput, error) {
			if input.MemberID == "" {
				return MemberProfileOutput{}, fmt.Errorf("member_id is required")
			}
			docs, err := reader.DocumentsForEntity(ctx, input.MemberID)
			if err != nil {
				return MemberProfileOutput{}, fmt.Errorf("load profile: %w", err)
			}
			if len(docs) == 0 {
				return MemberProfileOutput{}, fmt.Errorf("no profile found for member: %s", input.MemberID)
			}

			out := MemberProfileOutput{
				MemberID:   input.MemberID,
				Attributes: docs[0].EntityAttributes,
				Documents:  make([]string, 0, len(docs)),
			}
			for _, d := range docs {
				out.Documents = append(out.Documents, d.Content)
			}
			logger.Debug("profile loaded", "member_id", input.MemberID, "documents", len(docs))
			return out, nil
		})
	if err != nil {
		return nil, err
	}

	def.Describe = func(call llm.ToolCall) string {
		var input MemberProfileInput
		if err := decodeArguments(call.Arguments, &input); err != nil || input.MemberID == "" {
			return "Looking up a member profile"
		}
		return "Looking up profile of member " + input.MemberID
	}
	return def, nil
}
