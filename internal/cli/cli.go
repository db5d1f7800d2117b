// Package cli - интерактивная консоль оператора: запуск обработки таблиц,
// управление задачами и просмотр журналов.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"clinicAgent/internal/browser"
	"clinicAgent/internal/cli/commands"
	"clinicAgent/internal/cli/ui"
	"clinicAgent/internal/logger"

	"github.com/chzyer/readline"
)

type CLI struct {
	log            *logger.Zap
	out            io.Writer
	rl             *readline.Instance
	in             *bufio.Reader
	jobsHandler    *commands.JobsHandler
	logsHandler    *commands.LogsHandler
	browserHandler *commands.BrowserHandler
}

// New создает консоль. results и br могут быть nil: тогда команды results и open
// сообщают, что база или браузер недоступны.
func New(j commands.Jobs, results commands.Results, br *browser.PlaywrightBrowser, log *logger.Zap) *CLI {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     ".clinic-agent-history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Warn("Не удалось инициализировать readline, будет использован fallback режим")
		c := newCLI(j, results, tabOpener(br), os.Stdout, log)
		c.in = bufio.NewReader(os.Stdin)
		return c
	}

	// Вывод через readline не ломает строку ввода, пока задачи пишут в консоль.
	c := newCLI(j, results, tabOpener(br), rl.Stdout(), log)
	c.rl = rl
	return c
}

func newCLI(j commands.Jobs, results commands.Results, br commands.TabOpener, out io.Writer, log *logger.Zap) *CLI {
	if log == nil {
		log = logger.Nop()
	}
	jh := commands.NewJobsHandler(j, out, log.Logger)
	return &CLI{
		log:            log,
		out:            out,
		jobsHandler:    jh,
		logsHandler:    commands.NewLogsHandler(jh, results, out, log.Logger),
		browserHandler: commands.NewBrowserHandler(br, out),
	}
}

func (c *CLI) readLine() (string, error) {
	if c.rl != nil {
		return c.rl.Readline()
	}
	fmt.Fprint(c.out, ui.ColorCyan+"> "+ui.ColorReset)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *CLI) closeReadline() {
	if c.rl != nil {
		c.rl.Close()
	}
}

// Run читает команды до exit, EOF или отмены ctx.
func (c *CLI) Run(ctx context.Context) {
	ui.PrintWelcome(c.out)
	defer c.closeReadline()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, "\n"+ui.ColorCyan+ui.IconWave+" Получен сигнал завершения..."+ui.ColorReset)
			return
		default:
		}

		line, err := c.readLine()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		} else if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !c.handleCommand(ctx, line) {
			return
		}
	}
}

// handleCommand выполняет одну команду. false означает выход из консоли.
func (c *CLI) handleCommand(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "exit", "quit":
		fmt.Fprintln(c.out, ui.ColorCyan+ui.IconWave+" До свидания!"+ui.ColorReset)
		return false

	case "clear":
		ui.ClearScreen(c.out)

	case "start":
		c.jobsHandler.Start(arg)

	case "jobs":
		c.jobsHandler.List()

	case "status":
		c.jobsHandler.Status(arg)

	case "pause":
		c.jobsHandler.Pause(arg)

	case "resume":
		c.jobsHandler.Resume(arg)

	case "stop":
		c.jobsHandler.Stop(arg)

	case "logs":
		c.logsHandler.Show(arg)

	case "results":
		c.logsHandler.Results(ctx, arg)

	case "open":
		c.browserHandler.Open(ctx, arg)

	default:
		ui.PrintHelp(c.out)
	}
	return true
}

// playwrightTabs открывает вкладки подключенного браузера для команды open.
type playwrightTabs struct {
	b *browser.PlaywrightBrowser
}

func tabOpener(b *browser.PlaywrightBrowser) commands.TabOpener {
	if b == nil {
		return nil
	}
	return playwrightTabs{b: b}
}

func (p playwrightTabs) Reattach(ctx context.Context) error {
	return p.b.Reattach(ctx)
}

func (p playwrightTabs) SiteTab(ctx context.Context, rawURL string) error {
	_, err := p.b.SiteTab(ctx, rawURL)
	return err
}
