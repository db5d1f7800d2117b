package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"clinicAgent/internal/cli/ui"
)

// TabOpener открывает вкладку в подключенном браузере.
type TabOpener interface {
	Reattach(ctx context.Context) error
	SiteTab(ctx context.Context, rawURL string) error
}

// BrowserHandler обрабатывает команды браузера
type BrowserHandler struct {
	browser TabOpener
	out     io.Writer
}

func NewBrowserHandler(br TabOpener, out io.Writer) *BrowserHandler {
	return &BrowserHandler{
		browser: br,
		out:     out,
	}
}

// Open открывает URL во вкладке браузера, например чтобы войти в аккаунт чата.
// Уже открытая вкладка того же сайта переиспользуется.
func (h *BrowserHandler) Open(ctx context.Context, url string) {
	if h.browser == nil {
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Браузер не подключен"+ui.ColorReset)
		return
	}
	url = strings.TrimSpace(url)
	if url == "" {
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Укажите адрес"+ui.ColorReset)
		return
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	if err := h.browser.Reattach(ctx); err != nil {
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка подключения к браузеру:"+ui.ColorReset+" %v\n", err)
		return
	}
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconGlobe+" Открытие %s..."+ui.ColorReset+"\n", url)
	if err := h.browser.SiteTab(ctx, url); err != nil {
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка навигации:"+ui.ColorReset+" %v\n", err)
		return
	}
	fmt.Fprintln(h.out, ui.ColorGreen+ui.IconCheckmark+" Вкладка открыта"+ui.ColorReset)
}
