package notifier

import (
	"fmt"
	"html"
	"strings"

	"StockForecast/internal/directory"
	"StockForecast/internal/model"
)

// FormatForecastReport formats a forecast summary into a Telegram message.
func FormatForecastReport(s model.Summary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> (%s)\n", html.EscapeString(s.Name), html.EscapeString(s.Symbol)))
	b.WriteString(fmt.Sprintf("History: %s → %s, %d rows\n\n",
		s.FirstDate.Format("2006-01-02"), s.LastDate.Format("2006-01-02"), s.Rows))

	b.WriteString(fmt.Sprintf("Last close: %.2f\n", s.LastClose))
	ma200Dev := 0.0
	if s.MA200 > 0 {
		ma200Dev = (s.LastClose - s.MA200) / s.MA200 * 100
	}
	b.WriteString(fmt.Sprintf("MA200: %.2f (%+.1f%%)\n", s.MA200, ma200Dev))
	b.WriteString(fmt.Sprintf("RSI(14): %.1f\n", s.RSI14))
	b.WriteString(fmt.Sprintf("52w range: %.2f – %.2f (position %.0f%%)\n\n", s.Low52w, s.High52w, s.Position52w*100))

	end := s.ForecastEnd
	if !end.Date.IsZero() {
		b.WriteString(fmt.Sprintf("🔮 <b>Forecast %s:</b> %.2f (%+.1f%%)\n", end.Date.Format("2006-01-02"), end.Yhat, s.ChangePct))
		b.WriteString(fmt.Sprintf("   band: %.2f – %.2f\n", end.Lower, end.Upper))
	}
	return b.String()
}

// FormatSearchResults lists directory matches for a query.
func FormatSearchResults(query string, results []model.Company) string {
	if len(results) == 0 {
		return fmt.Sprintf("No companies match %q.", query)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%d match(es)</b>\n", len(results)))
	for _, c := range results {
		b.WriteString(html.EscapeString(directory.Label(c)))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("<b>Commands</b>\n")
	b.WriteString("/search &lt;name&gt; - find a ticker by company name\n")
	b.WriteString("/forecast &lt;SYMBOL&gt; - chart and forecast for a ticker\n")
	b.WriteString("/help - this message\n")
	return b.String()
}

// FormatError reports a failed command.
func FormatError(action string, err error) string {
	return fmt.Sprintf("⚠️ %s failed: %s", action, html.EscapeString(err.Error()))
}
