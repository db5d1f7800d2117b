// Package llm описывает ассистента, который по скриншоту страницы отвечает на вопросы
// агента: какая ссылка ведет к персоналу и что видно на странице персонала.
// Включает клиент OpenAI, ограничение частоты и запись обменов в базу.
package llm

import "context"

// Kind - тип вопроса к ассистенту.
type Kind string

const (
	KindNav   Kind = "nav"
	KindStaff Kind = "staff"
)

// Request - один вопрос со скриншотом.
type Request struct {
	JobID  string
	Site   string
	Kind   Kind
	Prompt string
	// Image - JPEG-скриншот; может быть пустым.
	Image     []byte
	ImageName string
}

// Answer - текст ответа и сведения о том, кто ответил.
type Answer struct {
	Text       string
	Backend    string
	Model      string
	TokensUsed int
}

// Assistant - бэкенд ассистента: веб-чат в браузере или API.
type Assistant interface {
	Ask(ctx context.Context, req Request) (Answer, error)
	Name() string
}

// Recorder сохраняет обмен с ассистентом.
type Recorder interface {
	RecordExchange(ctx context.Context, req Request, ans Answer) error
}
