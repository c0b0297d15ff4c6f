package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Victor-armando18/service-rules/pkg/engine"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type options struct {
	rulesDir string
	version  string
	trigger  string
	subject  string
	labels   string
	total    string
	verbose  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.rulesDir, "rules", "data/rules", "directory holding v<version>_rules.yaml files")
	flag.StringVar(&opts.version, "version", "v1", "rule pack version")
	flag.StringVar(&opts.trigger, "trigger", "discount_vip", "trigger code to evaluate")
	flag.StringVar(&opts.subject, "subject", "order", "subject kind: order, price, customer, professional or template")
	flag.StringVar(&opts.labels, "labels", "", "comma separated label names carried by the subject (the customer, for orders)")
	flag.StringVar(&opts.total, "total", "100.00", "order total, for order subjects")
	flag.BoolVar(&opts.verbose, "v", false, "log engine decisions")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	runID := uuid.Must(uuid.NewV4()).String()
	entry := log.WithField("run_id", runID)

	eng, err := engine.Load(ctx, engine.NewVersionLoader(opts.rulesDir, opts.version, entry), engine.WithLogger(entry))
	if err != nil {
		return err
	}
	labels, err := lookupLabels(eng.Pack(), opts.labels)
	if err != nil {
		return err
	}
	subject, err := buildSubject(opts.subject, labels, opts.total)
	if err != nil {
		return err
	}

	outcome, err := eng.ProcessRules(ctx, subject, opts.trigger)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "   RULE ENGINE CLI - DIAGNOSTIC TOOL")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "   Run:      %s\n", runID)
	fmt.Fprintf(out, "   Rules:    %s\n", eng.Pack().Version)
	fmt.Fprintf(out, "   Trigger:  %s\n", opts.trigger)
	fmt.Fprintf(out, "   Subject:  %s %v\n", opts.subject, labelNames(labels))
	displayExecutionSummary(out, outcome)
	return nil
}

func lookupLabels(pack *engine.RulePack, names string) ([]engine.Label, error) {
	var labels []engine.Label
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		l, ok := pack.LabelByName(name)
		if !ok {
			return nil, fmt.Errorf("label %q is not defined in rule pack %s", name, pack.Version)
		}
		labels = append(labels, l)
	}
	return labels, nil
}

func buildSubject(kind string, labels []engine.Label, total string) (engine.Subject, error) {
	switch kind {
	case "order":
		amount, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("invalid total %q: %w", total, err)
		}
		return &engine.Order{ID: 1, Customer: &engine.Customer{ID: 1, Labels: labels}, TotalAmount: amount}, nil
	case "price":
		return &engine.Price{ID: 1, IsActive: true, Labels: labels}, nil
	case "customer":
		return &engine.Customer{ID: 1, Labels: labels}, nil
	case "professional":
		return &engine.Professional{ID: 1, Labels: labels}, nil
	case "template":
		return &engine.Template{ID: 1, Labels: labels}, nil
	}
	return nil, fmt.Errorf("unknown subject kind %q", kind)
}

func labelNames(labels []engine.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return names
}

func displayExecutionSummary(out io.Writer, res *engine.Outcome) {
	fmt.Fprintln(out, "\n[1. EXECUTION LOG]")
	if len(res.ExecutionLog) == 0 {
		fmt.Fprintln(out, "   (no rules evaluated)")
	}
	for _, step := range res.ExecutionLog {
		fmt.Fprintf(out, "   [%-10s] Rule: %-20s -> %s\n", strings.ToUpper(step.Phase), step.RuleName, step.Message)
	}

	fmt.Fprintln(out, "\n[2. RESULT]")
	fmt.Fprintf(out, "   Mode:     %s\n", res.Mode)
	fmt.Fprintf(out, "   Matched:  %v\n", res.MatchedRules)
	if res.Mode == engine.ModeApplicability {
		fmt.Fprintf(out, "   Applicable: %v\n", res.Applicable)
	} else if res.Discount == nil {
		fmt.Fprintln(out, "   No discount.")
	} else {
		d, _ := json.MarshalIndent(res.Discount, "   ", "  ")
		fmt.Fprintf(out, "   Discount: %s\n", d)
	}
	fmt.Fprintln(out, strings.Repeat("=", 60))
}
