package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/oncolens/assistant/internal/analysis/response"
	"github.com/oncolens/assistant/internal/model/chat"
	"github.com/oncolens/assistant/internal/model/role"
)

type fakeChatModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(f.reply, nil)}), nil
}

func TestRespondBuildsPromptWithHistory(t *testing.T) {
	fake := &fakeChatModel{reply: "Stay positive."}
	svc, err := NewServiceWithModel(context.Background(), fake, nil)
	require.NoError(t, err)

	history := []chat.Message{
		{Sender: chat.SenderAssistant, Content: "greeting"},
		{Sender: chat.SenderUser, Content: "earlier question"},
	}

	got, err := svc.Respond(context.Background(), role.Patient, history, "what now?")
	require.NoError(t, err)
	require.Equal(t, "Stay positive.", got)

	require.Len(t, fake.seen, 4)
	require.Equal(t, schema.System, fake.seen[0].Role)
	require.Contains(t, fake.seen[0].Content, "87%")
	require.Equal(t, schema.Assistant, fake.seen[1].Role)
	require.Equal(t, schema.User, fake.seen[2].Role)
	require.Equal(t, "what now?", fake.seen[3].Content)
}

func TestRespondPropagatesModelError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("quota exceeded")}
	svc, err := NewServiceWithModel(context.Background(), fake, nil)
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), role.Professional, nil, "trends")
	require.Error(t, err)
}

func TestRespondRejectsEmptyReply(t *testing.T) {
	fake := &fakeChatModel{reply: "   "}
	svc, err := NewServiceWithModel(context.Background(), fake, nil)
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), role.Patient, nil, "hello")
	require.Error(t, err)
}

func TestBuildHistoryMessagesKeepsRecentTurns(t *testing.T) {
	var messages []chat.Message
	for i := 0; i < 15; i++ {
		messages = append(messages, chat.Message{Sender: chat.SenderUser, Content: fmt.Sprintf("m%d", i)})
	}

	history := buildHistoryMessages(messages)
	require.Len(t, history, historyLimit)
	require.Equal(t, "m5", history[0].Content)
	require.Equal(t, "m14", history[len(history)-1].Content)
}

func TestBuildSystemPromptPerRole(t *testing.T) {
	patient := BuildSystemPrompt(role.Patient)
	require.Contains(t, patient, response.PatientFallback)
	require.NotContains(t, patient, "{")

	professional := BuildSystemPrompt(role.Professional)
	require.Contains(t, professional, "78% response rates")
	require.True(t, strings.Contains(professional, "oncologist"))
}
