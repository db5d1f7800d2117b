package ui

import (
	"fmt"
	"io"
	"os"
)

// PrintWelcome выводит приветствие и лого
func PrintWelcome(w io.Writer) {
	logoBytes, err := os.ReadFile("logo.txt")
	if err == nil {
		fmt.Fprintln(w, ColorCyan+string(logoBytes)+ColorReset)
	}
	fmt.Fprintln(w, ColorBold+IconClinic+" Clinic Agent v0.1.0"+ColorReset)
	fmt.Fprintln(w, ColorGray+"Поиск страниц персонала ветклиник и заполнение Google-таблиц"+ColorReset)
	fmt.Fprintln(w)
	PrintHelp(w)
	fmt.Fprintln(w, ColorCyan+IconBulb+" Совет:"+ColorReset+" Сначала выполните "+ColorYellow+"open <url чата>"+ColorReset+" и войдите в аккаунт, затем "+ColorYellow+"start"+ColorReset+" со ссылкой на таблицу")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ColorGray+"⬆️ ⬇️"+ColorReset+" Используйте стрелки для навигации по истории команд")
	fmt.Fprintln(w)
}

// PrintHelp выводит список доступных команд
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, ColorYellow+IconList+" Доступные команды:"+ColorReset)
	fmt.Fprintln(w, "  "+ColorGreen+"start"+ColorReset+" <ссылка>      - Запустить обработку таблицы")
	fmt.Fprintln(w, "  "+ColorGreen+"jobs"+ColorReset+"                - Список задач")
	fmt.Fprintln(w, "  "+ColorGreen+"status"+ColorReset+" <id>         - Состояние задачи")
	fmt.Fprintln(w, "  "+ColorGreen+"logs"+ColorReset+" <id>           - Журнал задачи")
	fmt.Fprintln(w, "  "+ColorGreen+"results"+ColorReset+" <id>        - Результаты по сайтам из базы")
	fmt.Fprintln(w, "  "+ColorGreen+"pause"+ColorReset+" <id>          - Поставить на паузу")
	fmt.Fprintln(w, "  "+ColorGreen+"resume"+ColorReset+" <id>         - Продолжить")
	fmt.Fprintln(w, "  "+ColorGreen+"stop"+ColorReset+" <id>           - Остановить")
	fmt.Fprintln(w, "  "+ColorGreen+"open"+ColorReset+" <url>          - Открыть вкладку в браузере")
	fmt.Fprintln(w, "  "+ColorGreen+"clear"+ColorReset+"               - Очистить экран")
	fmt.Fprintln(w, "  "+ColorGreen+"exit"+ColorReset+"                - Выход")
	fmt.Fprintln(w)
}
