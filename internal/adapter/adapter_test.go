package adapter_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"moonshot-ollama-adapter/internal/adapter"
	apierrors "moonshot-ollama-adapter/internal/errors"
)

func TestLegacyExtractPrompt(t *testing.T) {
	ad := adapter.NewLegacyAdapter()

	got, err := ad.ExtractPrompt([]byte(`{"inputs":"  Tell me a joke\né  "}`))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if want := "  Tell me a joke\né  "; got != want {
		t.Fatalf("prompt = %q, want %q", got, want)
	}
}

func TestChatExtractPromptUsesFirstMessage(t *testing.T) {
	ad := adapter.NewChatAdapter()

	body := `{"messages":[{"role":"user","content":"Is this text safe?"},{"role":"assistant","content":"ignored"}]}`
	got, err := ad.ExtractPrompt([]byte(body))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if want := "Is this text safe?"; got != want {
		t.Fatalf("prompt = %q, want %q", got, want)
	}
}

func TestExtractPromptDuplicateKeysLastWins(t *testing.T) {
	cases := []struct {
		variant adapter.Variant
		body    string
		want    string
	}{
		{adapter.VariantLegacy, `{"inputs":"a","inputs":"b"}`, "b"},
		{adapter.VariantLegacy, `{"inputs":1,"inputs":"b"}`, "b"},
		{adapter.VariantChat, `{"messages":[{"content":"a","content":"b"}]}`, "b"},
		{adapter.VariantChat, `{"messages":"x","messages":[{"content":"c"}]}`, "c"},
	}
	for _, tc := range cases {
		ad, err := adapter.ForVariant(tc.variant)
		if err != nil {
			t.Fatalf("for variant: %v", err)
		}
		got, err := ad.ExtractPrompt([]byte(tc.body))
		if err != nil {
			t.Fatalf("%s: extract: %v", tc.body, err)
		}
		if got != tc.want {
			t.Fatalf("%s: prompt = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestExtractPromptFailures(t *testing.T) {
	cases := []struct {
		name    string
		variant adapter.Variant
		body    string
	}{
		{"legacy invalid json", adapter.VariantLegacy, `{"inputs":`},
		{"legacy not object", adapter.VariantLegacy, `["inputs"]`},
		{"legacy missing inputs", adapter.VariantLegacy, `{"prompt":"hi"}`},
		{"legacy number inputs", adapter.VariantLegacy, `{"inputs":123}`},
		{"legacy null inputs", adapter.VariantLegacy, `{"inputs":null}`},
		{"legacy last inputs wins", adapter.VariantLegacy, `{"inputs":"a","inputs":null}`},
		{"legacy body is chat", adapter.VariantLegacy, `{"messages":[{"role":"user","content":"hi"}]}`},
		{"chat missing messages", adapter.VariantChat, `{"inputs":"hi"}`},
		{"chat messages object", adapter.VariantChat, `{"messages":{"0":{"content":"hi"}}}`},
		{"chat empty messages", adapter.VariantChat, `{"messages":[]}`},
		{"chat first not object", adapter.VariantChat, `{"messages":["hi"]}`},
		{"chat missing content", adapter.VariantChat, `{"messages":[{"role":"user"}]}`},
		{"chat content array", adapter.VariantChat, `{"messages":[{"role":"user","content":[{"type":"text"}]}]}`},
		{"empty body", adapter.VariantChat, ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ad, err := adapter.ForVariant(tc.variant)
			if err != nil {
				t.Fatalf("for variant: %v", err)
			}
			_, err = ad.ExtractPrompt([]byte(tc.body))
			if err == nil {
				t.Fatalf("expected extraction error")
			}
			if !apierrors.Is(err, apierrors.KindExtraction) {
				t.Fatalf("kind = %q, want extraction", apierrors.KindOf(err))
			}
			if err.Error() == "" {
				t.Fatalf("error message should not be empty")
			}
		})
	}
}

func TestBuildResponseShapes(t *testing.T) {
	legacy, err := json.Marshal(adapter.NewLegacyAdapter().BuildResponse("hello"))
	if err != nil {
		t.Fatalf("marshal legacy: %v", err)
	}
	if got, want := string(legacy), `[{"generated_text":"hello"}]`; got != want {
		t.Fatalf("legacy = %s, want %s", got, want)
	}

	chat, err := json.Marshal(adapter.NewChatAdapter().BuildResponse("unsafe\nS2"))
	if err != nil {
		t.Fatalf("marshal chat: %v", err)
	}
	if got, want := string(chat), `{"choices":[{"message":{"content":"unsafe\nS2"}}]}`; got != want {
		t.Fatalf("chat = %s, want %s", got, want)
	}
}

func TestRoundTripStaysInVariantFamily(t *testing.T) {
	cases := map[adapter.Variant]struct {
		body string
		want any
	}{
		adapter.VariantLegacy: {
			body: `{"inputs":"ping"}`,
			want: []any{map[string]any{"generated_text": "ping"}},
		},
		adapter.VariantChat: {
			body: `{"messages":[{"role":"user","content":"ping"}]}`,
			want: map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": "ping"}}}},
		},
	}

	for variant, tc := range cases {
		ad, err := adapter.ForVariant(variant)
		if err != nil {
			t.Fatalf("for variant %s: %v", variant, err)
		}
		if ad.Variant() != variant {
			t.Fatalf("adapter variant = %s, want %s", ad.Variant(), variant)
		}
		prompt, err := ad.ExtractPrompt([]byte(tc.body))
		if err != nil {
			t.Fatalf("%s extract: %v", variant, err)
		}
		encoded, err := json.Marshal(ad.BuildResponse(prompt))
		if err != nil {
			t.Fatalf("%s marshal: %v", variant, err)
		}
		var got any
		if err := json.Unmarshal(encoded, &got); err != nil {
			t.Fatalf("%s unmarshal: %v", variant, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s round trip mismatch (-want +got):\n%s", variant, diff)
		}
	}
}

func TestParseVariant(t *testing.T) {
	if v, err := adapter.ParseVariant(" Chat "); err != nil || v != adapter.VariantChat {
		t.Fatalf("parse chat = %v, %v", v, err)
	}
	if v, err := adapter.ParseVariant("legacy"); err != nil || v != adapter.VariantLegacy {
		t.Fatalf("parse legacy = %v, %v", v, err)
	}
	if _, err := adapter.ParseVariant("openai"); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
	if _, err := adapter.ForVariant(adapter.Variant(99)); err == nil {
		t.Fatalf("expected error for unknown variant value")
	}
}
