package report

import (
	"bytes"
	"fmt"
	"html/template"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"duration": FormatDuration,
	"stops":    FormatStops,
	"inc":      func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
.container { max-width: 800px; margin: 0 auto; background: white; padding: 20px; border-radius: 8px; }
.header { text-align: center; color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 15px; }
.summary { background: #ecf0f1; padding: 15px; border-radius: 5px; margin: 20px 0; }
.stats { display: flex; justify-content: space-around; }
.stat { text-align: center; }
.deal { background: #e8f5e8; padding: 10px; margin: 5px 0; border-left: 4px solid #27ae60; }
.month { background: #ffeaa7; padding: 10px; margin: 5px 0; }
.footer { text-align: center; color: #7f8c8d; margin-top: 30px; border-top: 1px solid #bdc3c7; padding-top: 15px; }
.price { font-weight: bold; color: #27ae60; }
.airline { color: #3498db; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>Flight Monitor Report</h1>
<h2>{{.Meta.Route}}</h2>
<p>{{.Meta.SearchDate.Format "January 02, 2006 at 15:04 MST"}}</p>
</div>
{{with .Analysis}}{{if .Empty}}
<div class="summary"><h2>No flight options found</h2></div>
{{else}}
<div class="summary">
<h2>Executive Summary</h2>
<div class="stats">
<div class="stat"><h3>{{.PriceMin}} {{$.Currency}}</h3><p>Best Deal</p></div>
<div class="stat"><h3>{{.PriceAvg}} {{$.Currency}}</h3><p>Average Price</p></div>
<div class="stat"><h3>{{.TotalOptions}}</h3><p>Options Found</p></div>
<div class="stat"><h3>{{$.Meta.APICallsUsed}}</h3><p>API Calls Used</p></div>
</div>
</div>
<div class="best-deals">
<h2>Top {{len .BestDeals}} Best Deals</h2>
{{range $i, $d := .BestDeals}}<div class="deal">
<strong>#{{inc $i}}. <span class="price">{{$d.Price}} {{$.Currency}}</span></strong> - <span class="airline">{{$d.Airline}}</span> to {{$d.Destination}}<br>
{{$d.DepartureWeekday}} {{$d.DepartureDate.Format "2006-01-02"}} &rarr; {{$d.ReturnWeekday}} {{$d.ReturnDate.Format "2006-01-02"}}<br>
{{duration $d.DurationMinutes}} | {{stops $d}}{{if gt $d.CarbonKg 0.0}} | {{printf "%.1f" $d.CarbonKg}} kg CO2{{end}}
</div>
{{end}}</div>
<div class="month-analysis">
<h2>Monthly Breakdown</h2>
{{range .ByMonth}}<div class="month">
<strong>{{.Label}}</strong>: {{.Count}} options | From <span class="price">{{.MinPrice}} {{$.Currency}}</span> | Avg: {{.AvgPrice}} {{$.Currency}}
{{with .BestDeal}}<br>Best: {{.DepartureWeekday}} {{.DepartureDate.Format "2006-01-02"}} - <span class="price">{{.Price}} {{$.Currency}}</span> ({{.Airline}}){{end}}
</div>
{{end}}</div>
<div class="summary">
<h2>Market Insights</h2>
<ul>
<li><strong>Price Range:</strong> {{.PriceMin}} - {{.PriceMax}} {{$.Currency}} ({{.PriceSpread}} spread)</li>
<li><strong>Median Price:</strong> {{.PriceMedian}} {{$.Currency}}</li>
<li><strong>Direct Flights:</strong> {{.DirectFlights}} out of {{.TotalOptions}} options</li>
<li><strong>Best Month:</strong> {{.BestMonth}}</li>
{{range .ByWeekday}}<li><strong>{{.Label}} departures:</strong> avg {{.AvgPrice}} {{$.Currency}}, from {{.MinPrice}} {{$.Currency}}</li>
{{end}}{{if gt (len .ByDestination) 1}}{{range .ByDestination}}<li><strong>{{.Label}}:</strong> from {{.MinPrice}} {{$.Currency}} ({{.Count}} options)</li>
{{end}}{{end}}</ul>
</div>
{{end}}{{end}}
<div class="footer">
<p>Automated Flight Monitor | {{.Meta.SampledDates}} of {{.Meta.CandidateDates}} date pairs searched ({{printf "%.1f" .Meta.CoveragePercent}}% coverage)</p>
</div>
</div>
</body>
</html>
`))

type htmlData struct {
	Meta     SearchMetadata
	Analysis AggregateReport
	Currency string
}

// RenderHTML renders the e-mail body for a report
func RenderHTML(rep SavedReport) (string, error) {
	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, htmlData{
		Meta:     rep.SearchMetadata,
		Analysis: rep.Analysis,
		Currency: rep.SearchMetadata.Configuration.Currency,
	})
	if err != nil {
		return "", fmt.Errorf("render html report: %w", err)
	}
	return buf.String(), nil
}

// Subject is the e-mail subject line for a report
func Subject(rep SavedReport) string {
	a := rep.Analysis
	if a.Empty() {
		return fmt.Sprintf("Flight Monitor Report - No options found - %s", rep.SearchMetadata.SearchDate.Format("Jan 02"))
	}
	return fmt.Sprintf("Flight Monitor Report - Best: %d %s - %s",
		a.PriceMin, rep.SearchMetadata.Configuration.Currency, rep.SearchMetadata.SearchDate.Format("Jan 02"))
}
