package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pratik-mahalle/tiergate/internal/config"
	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
)

func TestOpenAI_Generate(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "pong"},
			}},
			Usage: openai.Usage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
		})
	}))
	defer srv.Close()

	p := NewOpenAI(config.ProviderConfig{
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: srv.URL + "/v1",
		SystemPrompt:  "be brief",
	})

	gen, err := p.Generate(context.Background(),
		plan.ModelConfig{ProviderModelID: "gpt-4o", Temperature: 0.5},
		[]chat.Message{{Role: chat.RoleUser, Content: "ping"}},
		2000,
	)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Text != "pong" || gen.TokensUsed != 7 {
		t.Errorf("Generate() = %+v, want pong/7", gen)
	}

	if got.Model != "gpt-4o" || got.MaxTokens != 2000 || got.Temperature != 0.5 {
		t.Errorf("request = model %s max %d temp %v", got.Model, got.MaxTokens, got.Temperature)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem || got.Messages[1].Content != "ping" {
		t.Errorf("messages = %+v, want system prompt then user turn", got.Messages)
	}
}

func TestOpenAI_GenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: ErrNoChoices},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewOpenAI(config.ProviderConfig{OpenAIAPIKey: "sk-test", OpenAIBaseURL: srv.URL})
			_, err := p.Generate(context.Background(), plan.ModelConfig{ProviderModelID: "gpt-4o-mini"},
				[]chat.Message{{Role: chat.RoleUser, Content: "hi"}}, 0)
			if err == nil {
				t.Fatal("Generate() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_OfflineWithoutKey(t *testing.T) {
	p := New(config.ProviderConfig{})
	if _, ok := p.(*Static); !ok {
		t.Fatalf("New() = %T, want *Static", p)
	}

	gen, err := p.Generate(context.Background(), plan.ModelConfig{ProviderModelID: "gpt-4o-mini"}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gen.Text, "gpt-4o-mini") || gen.TokensUsed != 0 {
		t.Errorf("Generate() = %+v", gen)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Generate(ctx, plan.ModelConfig{}, nil, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}
