package console

import (
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

// Console é uma implementação do ConsoleInterface.
type Console struct{}

// NewConsole cria um novo Console.
func NewConsole() *Console {
	return &Console{}
}

// Print imprime no console.
func (c *Console) Print(a ...interface{}) {
	fmt.Print(a...)
}

// Printf imprime uma string formatada no console.
func (c *Console) Printf(format string, a ...interface{}) {
	fmt.Printf(format, a...)
}

// Println imprime no console com uma nova linha.
func (c *Console) Println(a ...interface{}) {
	fmt.Println(a...)
}

// LogInfo registra uma mensagem de informação.
func (c *Console) LogInfo(format string, a ...interface{}) {
	pterm.Info.Printfln(format, a...)
}

// LogWarning registra uma mensagem de aviso.
func (c *Console) LogWarning(format string, a ...interface{}) {
	pterm.Warning.Printfln(format, a...)
}

// LogError registra uma mensagem de erro.
func (c *Console) LogError(format string, a ...interface{}) {
	pterm.Error.Printfln(format, a...)
}

// LogSuccess registra uma mensagem de sucesso.
func (c *Console) LogSuccess(format string, a ...interface{}) {
	pterm.Success.Printfln(format, a...)
}

// statusHandle é uma implementação do StatusHandle.
type statusHandle struct {
	spinner *pterm.SpinnerPrinter
}

// Status cria um spinner de status com a mensagem especificada.
func (c *Console) Status(message string) types.StatusHandle {
	spinner, _ := pterm.DefaultSpinner.Start(message)
	return &statusHandle{spinner: spinner}
}

// Cores predefinidas para uso consistente
var (
	BoldRed      = color.New(color.FgRed, color.Bold).SprintFunc()
	BrightGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	BrightYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	BrightRed    = color.New(color.FgRed, color.Bold).SprintFunc()
	BrightCyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Update atualiza a mensagem de status.
func (h *statusHandle) Update(message string) {
	if h.spinner != nil {
		h.spinner.UpdateText(message)
	}
}

// Stop pára o spinner de status.
func (h *statusHandle) Stop() {
	if h.spinner != nil {
		h.spinner.Stop()
	}
}

// Table é uma implementação do TableInterface.
type Table struct {
	columns []string
	rows    [][]string
}

// CreateTable cria uma nova tabela.
func (c *Console) CreateTable() types.TableInterface {
	return &Table{
		columns: []string{},
		rows:    [][]string{},
	}
}

// AddColumn adiciona uma coluna à tabela.
func (t *Table) AddColumn(name string, options ...interface{}) {
	t.columns = append(t.columns, name)
}

// AddRow adiciona uma linha à tabela.
func (t *Table) AddRow(cells ...interface{}) {
	// Convertemos cada célula para string
	processedCells := make([]string, len(cells))
	for i, cell := range cells {
		processedCells[i] = fmt.Sprint(cell)
	}
	t.rows = append(t.rows, processedCells)
}

// Render renderiza a tabela como uma string.
func (t *Table) Render() string {
	// Use o pterm para criar uma tabela visualmente agradável
	tableData := pterm.TableData{t.columns}
	for _, row := range t.rows {
		tableData = append(tableData, row)
	}

	table := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(tableData)

	renderedTable, _ := table.Srender()
	return renderedTable
}

// DisplayUsageBars exibe o consumo por período como barras horizontais, com
// um marcador na posição do limite quando ele existe.
func (c *Console) DisplayUsageBars(title string, values []types.PeriodValue, threshold *float64) {
	panel, ok := renderUsageBars(title, values, threshold)
	if !ok {
		pterm.Warning.Println("No usage recorded for this period")
		return
	}
	fmt.Println("\n" + panel)
}

const barWidth = 40

func renderUsageBars(title string, values []types.PeriodValue, threshold *float64) (string, bool) {
	// A escala considera o limite para que o marcador caiba na barra
	maxValue := 0.0
	for _, v := range values {
		maxValue = math.Max(maxValue, v.Value)
	}
	if threshold != nil {
		maxValue = math.Max(maxValue, *threshold)
	}
	if maxValue == 0 {
		return "", false
	}

	marker := -1
	if threshold != nil {
		marker = int(math.Round(*threshold / maxValue * barWidth))
		if marker >= barWidth {
			marker = barWidth - 1
		}
	}

	tableData := pterm.TableData{
		{"Period", "Usage (kWh)", ""},
	}

	for _, v := range values {
		barLength := int(v.Value / maxValue * barWidth)

		var sb strings.Builder
		for i := 0; i < barWidth; i++ {
			switch {
			case i == marker:
				sb.WriteString("│")
			case i < barLength:
				sb.WriteString("█")
			default:
				sb.WriteString(" ")
			}
		}
		bar := strings.TrimRight(sb.String(), " ")

		above := threshold != nil && v.Value > *threshold
		barColor := pterm.FgBlue.Sprint(bar)
		usage := fmt.Sprintf("%.2f", v.Value)
		if above {
			barColor = pterm.FgRed.Sprint(bar)
			usage = BoldRed(usage)
		}

		tableData = append(tableData, []string{v.Period, usage, barColor})
	}

	table := pterm.DefaultTable.WithHasHeader().WithData(tableData)
	renderedTable, _ := table.Srender()

	if threshold != nil {
		renderedTable += "\n" + BrightYellow(fmt.Sprintf("│ threshold: %.2f kWh", *threshold))
	}

	panel := pterm.DefaultBox.WithTitle(title).WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).Sprint(renderedTable)
	return panel, true
}
