package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/agrovision/pkg/advisor"
	"github.com/codeGROOVE-dev/agrovision/pkg/agrovision"
	"github.com/codeGROOVE-dev/agrovision/pkg/histogram"
	"github.com/codeGROOVE-dev/agrovision/pkg/history"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	subtle  = color.New(color.FgHiBlack)
)

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	heading.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("─", 50))
}

func bullets(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  • %s\n", item)
	}
}

func printScan(w io.Writer, r *agrovision.ScanResult) {
	fmt.Fprintln(w)
	fmt.Fprint(w, histogram.GenerateHistogram(r.Prediction, histogram.DefaultWidth))
	printDiagnosis(w, r.Diagnosis)
}

func printDiagnosis(w io.Writer, d advisor.Diagnosis) {
	section(w, "🌿 "+d.Translation.TranslatedName)
	fmt.Fprintf(w, "Label: %s\n", histogram.DisplayLabel(d.Label))
	if d.Translation.CommonName != nil {
		fmt.Fprintf(w, "Common name: %s\n", *d.Translation.CommonName)
	}
	if d.Translation.ShortDesc != nil {
		fmt.Fprintf(w, "%s\n", *d.Translation.ShortDesc)
	}
	if d.Healthy {
		good.Fprintln(w, "✅ The plant looks healthy.")
		return
	}
	if d.Treatment != nil {
		printTreatment(w, *d.Treatment)
	}
}

func printTreatment(w io.Writer, t advisor.TreatmentResult) {
	section(w, "💊 "+t.Title)
	if t.Summary != nil {
		fmt.Fprintf(w, "%s\n\n", *t.Summary)
	}
	for i, step := range t.Treatments {
		fmt.Fprintf(w, "%d. %s\n", i+1, step)
	}
	if len(t.Treatments) > 0 {
		fmt.Fprintln(w)
	}
	bullets(w, "Organic options:", t.OrganicOptions)
	bullets(w, "Chemical options:", t.ChemicalOptions)
	if t.Precautions != nil {
		warn.Fprintf(w, "⚠️  %s\n", *t.Precautions)
	}
}

func printChat(w io.Writer, lang advisor.Language, reply advisor.ChatReply) {
	subtle.Fprintln(w, advisor.Greeting(lang.Code))
	fmt.Fprintln(w)
	if reply.Failed {
		warn.Fprintln(w, reply.Reply)
		return
	}
	fmt.Fprintln(w, reply.Reply)
}

func printYield(w io.Writer, e advisor.YieldEstimate) {
	section(w, "🌾 Yield estimate")
	fmt.Fprintf(w, "Estimated yield: %s\n", e.EstimatedYield)
	if e.RawResponse != "" {
		warn.Fprintln(w, e.RawResponse)
		return
	}
	if e.TotalProduction != "" {
		fmt.Fprintf(w, "Total production: %s\n", e.TotalProduction)
	}
	if e.ConfidenceLevel != "" {
		fmt.Fprintf(w, "Confidence: %s\n", e.ConfidenceLevel)
	}
	if e.MarketValueEstimate != "" {
		fmt.Fprintf(w, "Market value: %s\n", e.MarketValueEstimate)
	}
	bullets(w, "Factors affecting yield:", e.FactorsAffecting)
	bullets(w, "Recommendations:", e.Recommendations)
	bullets(w, "Best practices:", e.BestPractices)
	bullets(w, "Risk factors:", e.RiskFactors)
}

func printHistory(w io.Writer, items []history.Item) {
	section(w, "🕘 Scan history")
	if len(items) == 0 {
		subtle.Fprintln(w, "No scans yet.")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "%s  %-40s %5.1f%%\n", item.Timestamp, histogram.DisplayLabel(item.Label), item.Confidence*100)
		if item.Suggestion != nil {
			subtle.Fprintf(w, "    %s\n", *item.Suggestion)
		}
	}
}

func printLanguages(w io.Writer) {
	for _, code := range advisor.LanguageCodes() {
		l, err := advisor.ParseLanguage(code)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s  %-8s %s\n", code, l.EnglishName, l.Name)
	}
}
