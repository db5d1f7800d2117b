package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinicAgent/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePage struct {
	url     string
	visible map[string]bool
	counts  map[string]int

	replies   []string
	answer    string
	streaming int
	textsErr  error

	gotos   []string
	filled  []string
	clicked []string
	pressed []string
	files   []string
}

func newFakePage() *fakePage {
	return &fakePage{
		url: "https://chatgpt.com/c/1",
		visible: map[string]bool{
			"button[data-testid='new-chat-button']":  true,
			"textarea[data-testid='prompt-textarea']": true,
		},
		counts: map[string]int{
			"form input[type='file']": 1,
			sendSelector:              1,
		},
		replies: []string{"old answer"},
		answer:  "Our Team",
	}
}

func (f *fakePage) URL() string { return f.url }

func (f *fakePage) Goto(_ context.Context, u string) error {
	f.gotos = append(f.gotos, u)
	f.url = u
	f.replies = nil
	return nil
}

func (f *fakePage) FirstVisible(_ context.Context, selectors []string, _ time.Duration) (string, bool, error) {
	for _, s := range selectors {
		if f.visible[s] {
			return s, true, nil
		}
	}
	return "", false, nil
}

func (f *fakePage) Count(_ context.Context, selector string) (int, error) {
	switch selector {
	case stopSelector:
		if f.streaming > 0 {
			f.streaming--
			return 1, nil
		}
		return 0, nil
	case assistantSelector:
		return len(f.replies), nil
	}
	return f.counts[selector], nil
}

func (f *fakePage) Texts(context.Context, string) ([]string, error) {
	if f.textsErr != nil {
		return nil, f.textsErr
	}
	return f.replies, nil
}

func (f *fakePage) Fill(_ context.Context, _ string, text string) error {
	f.filled = append(f.filled, text)
	return nil
}

func (f *fakePage) Click(_ context.Context, selector string) error {
	f.clicked = append(f.clicked, selector)
	switch selector {
	case "button[data-testid='new-chat-button']":
		f.replies = nil
	case sendSelector:
		f.deliver()
	}
	return nil
}

func (f *fakePage) Press(_ context.Context, _ string, key string) error {
	f.pressed = append(f.pressed, key)
	if key == "Enter" {
		f.deliver()
	}
	return nil
}

func (f *fakePage) SetInputFile(_ context.Context, selector, name, mimeType string, _ []byte) error {
	f.files = append(f.files, selector+"|"+name+"|"+mimeType)
	return nil
}

func (f *fakePage) deliver() {
	if f.answer != "" {
		f.replies = append(f.replies, f.answer)
	}
}

func newChat(p *fakePage) *WebChat {
	return New(func(context.Context) (Page, error) { return p, nil }, Options{
		URL:             "https://chatgpt.com/",
		ResponseTimeout: time.Second,
		StableFor:       5 * time.Millisecond,
		UploadWait:      -1,
		PollInterval:    time.Millisecond,
	}, nil)
}

var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func TestAskWithScreenshot(t *testing.T) {
	p := newFakePage()

	ans, err := newChat(p).Ask(context.Background(), llm.Request{
		Kind:   llm.KindNav,
		Prompt: "Which link?",
		Image:  jpeg,
	})
	require.NoError(t, err)
	assert.Equal(t, llm.Answer{Text: "Our Team", Backend: Backend}, ans)
	assert.Equal(t, []string{"form input[type='file']|screenshot.jpg|image/jpeg"}, p.files)
	assert.Equal(t, []string{"Which link?"}, p.filled)
	assert.Contains(t, p.clicked, sendSelector)
	assert.Empty(t, p.gotos)
}

func TestAskOpensURLWithoutNewChatButton(t *testing.T) {
	p := newFakePage()
	delete(p.visible, "button[data-testid='new-chat-button']")

	_, err := newChat(p).Ask(context.Background(), llm.Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://chatgpt.com/"}, p.gotos)
}

func TestAskComposerNotFound(t *testing.T) {
	p := newFakePage()
	delete(p.visible, "textarea[data-testid='prompt-textarea']")

	_, err := newChat(p).Ask(context.Background(), llm.Request{Prompt: "q"})
	assert.ErrorIs(t, err, ErrComposerNotFound)
}

func TestAskPressesEnterWithoutSendButton(t *testing.T) {
	p := newFakePage()
	delete(p.counts, sendSelector)

	ans, err := newChat(p).Ask(context.Background(), llm.Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "Our Team", ans.Text)
	assert.Equal(t, []string{"Enter"}, p.pressed)
}

func TestAskWaitsForStreaming(t *testing.T) {
	p := newFakePage()
	p.streaming = 5
	p.answer = "  555-1234, Anna, Lee, 3  "

	ans, err := newChat(p).Ask(context.Background(), llm.Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "555-1234, Anna, Lee, 3", ans.Text)
	assert.Zero(t, p.streaming)
}

func TestAskNoResponse(t *testing.T) {
	p := newFakePage()
	p.answer = ""

	w := newChat(p)
	w.opts.ResponseTimeout = 20 * time.Millisecond
	_, err := w.Ask(context.Background(), llm.Request{Prompt: "q"})
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestAskPageError(t *testing.T) {
	lost := errors.New("target closed")
	p := newFakePage()
	p.textsErr = lost

	_, err := newChat(p).Ask(context.Background(), llm.Request{Prompt: "q"})
	assert.ErrorIs(t, err, lost)
}

func TestAskSourceError(t *testing.T) {
	lost := errors.New("not attached")
	w := New(func(context.Context) (Page, error) { return nil, lost }, Options{}, nil)

	_, err := w.Ask(context.Background(), llm.Request{Prompt: "q"})
	assert.ErrorIs(t, err, lost)
	assert.Equal(t, Backend, w.Name())
}
