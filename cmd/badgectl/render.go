package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/geocoder89/eventprint/internal/domain/event"
	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/render"
	"github.com/geocoder89/eventprint/internal/render/assets"
	"github.com/geocoder89/eventprint/internal/render/placeholder"
)

type renderOpts struct {
	templatePath string
	contextPath  string
	kind         string
	out          string
	now          string
	verifyURL    string
	assetTimeout time.Duration
}

func newRenderCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var o renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template with a context to a PDF or a ZPL label",
		Long: `Render a template JSON file with a render context JSON file.

Without --context a sample attendee is used, the same one previews use.

Examples:
  # Certificate as PDF
  badgectl render --template cert.json --context jane.json --out jane.pdf

  # Badge as label, fixed date for reproducible output
  badgectl render --template badge.json --context jane.json --kind printer_command --now 2026-07-07T09:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, o, logger(cmd))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.templatePath, "template", "t", "", "template JSON file")
	f.StringVarP(&o.contextPath, "context", "c", "", "render context JSON file")
	f.StringVarP(&o.kind, "kind", "k", string(render.KindDocument), "document or printer_command")
	f.StringVarP(&o.out, "out", "o", "", "output file (default stdout)")
	f.StringVar(&o.now, "now", "", "clock for date placeholders, RFC3339")
	f.StringVar(&o.verifyURL, "verify-base-url", "", "base URL for {{verification_url}}")
	f.DurationVar(&o.assetTimeout, "asset-timeout", 5*time.Second, "per image download timeout")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func runRender(cmd *cobra.Command, o renderOpts, log *slog.Logger) error {
	var tpl template.Template
	if err := readJSON(o.templatePath, &tpl); err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	now := time.Now().UTC()
	resolverOpts := []placeholder.Option{}
	if o.now != "" {
		t, err := time.Parse(time.RFC3339, o.now)
		if err != nil {
			return fmt.Errorf("--now: %w", err)
		}
		now = t
		resolverOpts = append(resolverOpts, placeholder.WithClock(func() time.Time { return t }))
	}

	c := placeholder.Sample(event.Event{Title: "Sample Event", StartAt: now})
	if o.contextPath != "" {
		c = placeholder.Context{}
		if err := readJSON(o.contextPath, &c); err != nil {
			return fmt.Errorf("read context: %w", err)
		}
	}
	if o.verifyURL != "" {
		resolverOpts = append(resolverOpts, placeholder.WithVerifyBaseURL(o.verifyURL))
	}

	engine := render.NewEngine(render.Deps{
		Resolver: placeholder.New(resolverOpts...),
		Fetcher:  assets.NewFetcher(assets.NewHTTPSource(nil, 0), assets.Config{Timeout: o.assetTimeout}, assets.WithLogger(log)),
		Log:      log,
	})

	res, err := engine.Render(cmd.Context(), render.Request{
		Template: tpl,
		Context:  c,
		Kind:     render.Kind(o.kind),
	})
	if err != nil {
		return err
	}

	for _, s := range res.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped element %d (%s): %s\n", s.Index, s.Type, s.Reason)
	}

	if o.out == "" {
		_, err = cmd.OutOrStdout().Write(res.Bytes)
		return err
	}
	return os.WriteFile(o.out, res.Bytes, 0o644)
}

func readJSON(path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(v)
}
