package trasse

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/valyala/fasthttp"
)

// Custom log level for HTTP transactions
const HTTPLevel = log.Level(1)

var (
	// Status code styles, grouped by response class
	statusInfoStyle      = lipgloss.NewStyle().Background(lipgloss.Color("63")).Bold(true)  // 1xx
	statusSuccessStyle   = lipgloss.NewStyle().Background(lipgloss.Color("86")).Bold(true)  // 2xx
	statusRedirectStyle  = lipgloss.NewStyle().Background(lipgloss.Color("216")).Bold(true) // 3xx
	statusClientErrStyle = lipgloss.NewStyle().Background(lipgloss.Color("192")).Bold(true) // 4xx
	statusServerErrStyle = lipgloss.NewStyle().Background(lipgloss.Color("204")).Bold(true) // 5xx

	// HTTP method styles
	methodGetStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	methodPostStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("192")).Bold(true)
	methodPutStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	methodPatchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("134")).Bold(true)
	methodDeleteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true)
	methodDefaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("219")).Bold(true)
)

// getStatusStyle returns the pre-created style for the status code class
func getStatusStyle(status int) lipgloss.Style {
	switch {
	case status < StatusOK:
		return statusInfoStyle
	case status < 300:
		return statusSuccessStyle
	case status < StatusBadRequest:
		return statusRedirectStyle
	case status < StatusInternalServerError:
		return statusClientErrStyle
	default:
		return statusServerErrStyle
	}
}

// getMethodStyle returns the pre-created style for the HTTP method
func getMethodStyle(method string) lipgloss.Style {
	switch method {
	case MethodGet, MethodHead:
		return methodGetStyle
	case MethodPost:
		return methodPostStyle
	case MethodPut:
		return methodPutStyle
	case MethodPatch:
		return methodPatchStyle
	case MethodDelete:
		return methodDeleteStyle
	default:
		return methodDefaultStyle
	}
}

// setLoggerSettings configures the global logger with custom styles and
// output settings
func setLoggerSettings() {
	styles := log.DefaultStyles()
	styles.Timestamp = lipgloss.NewStyle().Faint(true)
	styles.Values["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	styles.Levels[HTTPLevel] = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true).SetString("HTTP")

	log.SetStyles(styles)
	log.SetOutput(os.Stderr)
	log.SetTimeFormat("2006/01/02 15:04:05")
}

// logHTTPTransaction records one request-response cycle with color-coded
// status, latency, method, and path
func logHTTPTransaction(fctx *fasthttp.RequestCtx, latency time.Duration) {
	status := fctx.Response.StatusCode()
	method := getString(fctx.Method())

	log.Logf(HTTPLevel, "%s| %9s | %s %q",
		getStatusStyle(status).Width(5).Align(lipgloss.Center).Render(fmt.Sprint(status)),
		latency,
		getMethodStyle(method).Render(fmt.Sprintf("%-7s", method)),
		fctx.Path(),
	)
}
